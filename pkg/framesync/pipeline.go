package framesync

import (
	"context"
	"fmt"

	"github.com/user/framesync/pkg/adapters/jsonexport"
	"github.com/user/framesync/pkg/adapters/matfile"
	"github.com/user/framesync/pkg/adapters/s3export"
	"github.com/user/framesync/pkg/adapters/smartloader"
	"github.com/user/framesync/pkg/discovery"
	"github.com/user/framesync/pkg/orchestrator"
	"github.com/user/framesync/pkg/pipeline"
	"github.com/user/framesync/pkg/ports"
	"github.com/user/framesync/pkg/stages/align"
	"github.com/user/framesync/pkg/stages/combine"
	"github.com/user/framesync/pkg/stages/composite"
	"github.com/user/framesync/pkg/stages/extract"
	"github.com/user/framesync/pkg/stages/layout"
)

// Deps are the adapters a pipeline is assembled from.
type Deps struct {
	FileSystem ports.FileSystem
	Source     ports.VideoSource
	Sink       ports.VideoSink
	Debug      ports.DebugSink
	Logger     ports.Logger

	// Discovery overrides the default filesystem walk.
	Discovery pipeline.Stage[pipeline.DiscoverInput, pipeline.DiscoverResult]
	// S3 overrides the client built from the AWS configuration chain.
	S3 s3export.ClientAPI
}

// Pipeline is an assembled orchestrator plus the geometry it was built for.
type Pipeline struct {
	orch   *orchestrator.Orchestrator
	Layout pipeline.LayoutResult
	Config Config
}

// NewPipeline computes the layout and wires every stage and exporter.
func NewPipeline(ctx context.Context, cfg Config, deps Deps) (*Pipeline, error) {
	geometry, err := layout.NewStage().Execute(ctx, cfg.LayoutInput())
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	compositor, err := composite.NewCompositor(geometry, cfg.CompositeOptions())
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	exporters, err := NewExporters(ctx, cfg, deps.FileSystem, deps.S3)
	if err != nil {
		return nil, err
	}

	discover := deps.Discovery
	if discover == nil {
		discover = discovery.NewStage(discovery.DefaultOptions(), deps.Logger)
	}

	o := orchestrator.New(
		discover,
		extract.NewStage(smartloader.New(deps.FileSystem), deps.Logger),
		align.NewStage(deps.Logger),
		combine.NewStage(deps.Source, deps.Sink, compositor, deps.Debug, deps.FileSystem, deps.Logger, cfg.CombineOptions(geometry)),
		exporters,
		deps.Debug,
		deps.Logger,
	)
	return &Pipeline{orch: o, Layout: geometry, Config: cfg}, nil
}

// NewExporters builds the start time exporters named in cfg.Exports, in order.
// A nil client makes the S3 exporter load the default AWS configuration.
func NewExporters(ctx context.Context, cfg Config, fs ports.FileSystem, client s3export.ClientAPI) ([]ports.ResultExporter, error) {
	var out []ports.ResultExporter
	for _, name := range cfg.Exports {
		switch name {
		case ExportMAT:
			out = append(out, matfile.NewExporter(fs))
		case ExportJSON:
			out = append(out, jsonexport.New(fs))
		case ExportS3:
			opts := s3export.Options{
				Bucket:       cfg.S3.Bucket,
				Prefix:       cfg.S3.Prefix,
				Region:       cfg.S3.Region,
				Profile:      cfg.S3.Profile,
				UsePathStyle: cfg.S3.UsePathStyle,
				UploadVideo:  cfg.S3.UploadVideo,
			}
			if client != nil {
				if opts.Bucket == "" {
					return nil, s3export.ErrNoBucket
				}
				out = append(out, s3export.NewWithClient(client, opts))
				continue
			}
			e, err := s3export.New(ctx, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		default:
			return nil, fmt.Errorf("unknown export format %q", name)
		}
	}
	return out, nil
}

// Run discovers the session for pair under root and runs the pipeline.
func (p *Pipeline) Run(ctx context.Context, root string, pair int) (orchestrator.RunResult, error) {
	return p.orch.Run(ctx, p.Config.ToOrchestratorConfig(root, pair))
}

// RunFiles runs the pipeline on explicit inputs, skipping discovery.
func (p *Pipeline) RunFiles(ctx context.Context, pair int, sources pipeline.DiscoverResult) (orchestrator.RunResult, error) {
	oc := p.Config.ToOrchestratorConfig("", pair)
	oc.Sources = &sources
	return p.orch.Run(ctx, oc)
}

// Align runs discovery, extraction and alignment only.
func (p *Pipeline) Align(ctx context.Context, root string, pair int, sources *pipeline.DiscoverResult) (orchestrator.RunResult, error) {
	oc := p.Config.ToOrchestratorConfig(root, pair)
	oc.Sources = sources
	oc.AlignOnly = true
	return p.orch.Run(ctx, oc)
}
