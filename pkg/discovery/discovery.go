// Package discovery locates the videos and timestamp files of a recording
// session below an input directory.
//
// Files are expected in per-site folders named pair<N>_<Lab>_behav:
//
//	pair3_Mordor_behav/pair3_Mordor_freeConv.mov
//	pair3_Mordor_behav/pair3_Mordor_freeConv_videoTimes.mat
//
// The folders may sit at any depth. The first match in lexical walk order wins.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
)

// ErrInvalidQuery is returned when root, pair or session is missing.
var ErrInvalidQuery = errors.New("discovery: invalid query")

// Options configures which files are recognised.
type Options struct {
	// VideoExts are the accepted video extensions (default: .mov).
	VideoExts []string
	// MetadataExts are the accepted timestamp file extensions
	// (default: .mat, .yaml, .yml, .json).
	MetadataExts []string
}

// DefaultOptions returns the extensions written by the recording setup
// plus the sidecar formats.
func DefaultOptions() Options {
	return Options{
		VideoExts:    []string{".mov"},
		MetadataExts: []string{".mat", ".yaml", ".yml", ".json"},
	}
}

// Stage finds the input files of one session.
type Stage struct {
	open   func(root string) fs.FS
	opts   Options
	logger ports.Logger
}

// NewStage creates a discovery stage over the OS filesystem.
func NewStage(opts Options, logger ports.Logger) *Stage {
	return NewStageFS(func(root string) fs.FS { return os.DirFS(root) }, opts, logger)
}

// NewStageFS creates a discovery stage over an arbitrary filesystem.
// open receives the query root.
func NewStageFS(open func(root string) fs.FS, opts Options, logger ports.Logger) *Stage {
	def := DefaultOptions()
	if len(opts.VideoExts) == 0 {
		opts.VideoExts = def.VideoExts
	}
	if len(opts.MetadataExts) == 0 {
		opts.MetadataExts = def.MetadataExts
	}
	return &Stage{
		open:   open,
		opts:   opts,
		logger: logger.WithComponent("discover"),
	}
}

// site tracks the lookup for one lab.
type site struct {
	lab      string
	dir      string // pair<N>_<Lab>_behav
	video    string // pair<N>_<Lab>_<session>
	metaHead string // pair<N>_<Lab>_<session>_
	files    pipeline.SourceFiles
}

// Execute implements pipeline.Stage.
func (s *Stage) Execute(ctx context.Context, input pipeline.DiscoverInput) (pipeline.DiscoverResult, error) {
	if input.Root == "" || input.Pair <= 0 || input.Session == "" {
		return pipeline.DiscoverResult{}, fmt.Errorf("%w: root=%q pair=%d session=%q",
			ErrInvalidQuery, input.Root, input.Pair, input.Session)
	}
	labA, labB := pipeline.DefaultLabs()
	if input.LabA != "" {
		labA = input.LabA
	}
	if input.LabB != "" {
		labB = input.LabB
	}

	sites := []*site{newSite(input.Pair, labA, input.Session), newSite(input.Pair, labB, input.Session)}
	s.logger.Debug("Searching %s for pair %d session %s", input.Root, input.Pair, input.Session)

	fsys := s.open(input.Root)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != "." && d != nil && d.IsDir() {
				s.logger.Warn("Skipping unreadable directory %s: %v", p, err)
				return fs.SkipDir
			}
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}

		parent := path.Base(path.Dir(p))
		name := d.Name()
		full := filepath.Join(input.Root, filepath.FromSlash(p))
		for _, st := range sites {
			if parent != st.dir {
				continue
			}
			if st.files.VideoPath == "" && s.isVideo(st, name) {
				st.files.VideoPath = full
			}
			if st.files.MetadataPath == "" && s.isMetadata(st, name) {
				st.files.MetadataPath = full
			}
		}
		return nil
	})
	if err != nil {
		return pipeline.DiscoverResult{}, fmt.Errorf("discovery: walk %s: %w", input.Root, err)
	}

	var errs []error
	for i, st := range sites {
		id := pipeline.SourceID(i).String()
		if st.files.VideoPath == "" {
			errs = append(errs, pipeline.NewSourceError(st.lab, "video "+st.video+".*", pipeline.ErrSourceNotFound))
		} else {
			s.logger.Debug("Source %s video: %s", id, st.files.VideoPath)
		}
		if st.files.MetadataPath == "" {
			errs = append(errs, pipeline.NewSourceError(st.lab, "timestamps "+st.metaHead+"*imes.*", pipeline.ErrMetadataNotFound))
		} else {
			s.logger.Debug("Source %s timestamps: %s", id, st.files.MetadataPath)
		}
	}
	if len(errs) > 0 {
		return pipeline.DiscoverResult{}, errors.Join(errs...)
	}

	return pipeline.DiscoverResult{
		A:          sites[0].files,
		B:          sites[1].files,
		OutputPath: OutputPath(input.Root, input.Pair, input.Session),
	}, nil
}

func newSite(pair int, lab, session string) *site {
	stem := fmt.Sprintf("pair%d_%s", pair, lab)
	return &site{
		lab:      lab,
		dir:      stem + "_behav",
		video:    stem + "_" + session,
		metaHead: stem + "_" + session + "_",
		files:    pipeline.SourceFiles{Label: lab},
	}
}

func (s *Stage) isVideo(st *site, name string) bool {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) == st.video && hasExt(s.opts.VideoExts, ext)
}

// isMetadata matches pair<N>_<Lab>_<session>_*imes.<ext>, which covers both
// _times and _videoTimes files.
func (s *Stage) isMetadata(st *site, name string) bool {
	ext := filepath.Ext(name)
	if !hasExt(s.opts.MetadataExts, ext) || !strings.HasPrefix(name, st.metaHead) {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(name[len(st.metaHead):], ext), "imes")
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// OutputPath returns <root>/pair<N>_<session>_combined_video.mp4.
func OutputPath(root string, pair int, session string) string {
	return filepath.Join(root, fmt.Sprintf("pair%d_%s_combined_video.mp4", pair, session))
}
