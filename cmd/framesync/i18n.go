// Package main provides localization for the framesync CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Input":         "入力",
		"Alignment":     "アライメント",
		"Video":         "動画",
		"Export":        "出力",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Combine two synchronized recordings into one side-by-side video": "同期した2つの録画を1つの並列動画に結合",
		"framesync aligns two recordings of the same session by their frame capture timestamps and writes one combined video plus its real-world start time.": "framesyncは同じセッションの2つの録画をフレームのキャプチャ時刻で揃え、結合した動画とその実時刻での開始時刻を書き出します。",
		"framesync version %s": "framesync バージョン %s",

		// Commands
		"Find the recordings of a pair and session and combine them": "ペアとセッションの録画を検索して結合",
		"Combine two explicitly given recordings":                    "指定した2つの録画を結合",
		"Print the frame alignment without writing a video":          "動画を書き出さずにフレームのアライメントを表示",

		// Input flags
		"Video of source A": "ソースAの動画",
		"Video of source B": "ソースBの動画",
		"Timestamp file of source A (.mat, .yaml or .json)": "ソースAのタイムスタンプファイル (.mat、.yaml、.json)",
		"Timestamp file of source B (.mat, .yaml or .json)": "ソースBのタイムスタンプファイル (.mat、.yaml、.json)",
		"Output MP4 file path":                          "出力MP4ファイルパス",
		"Pair number used to name the start time files": "開始時刻ファイルの名前に使うペア番号",
		"Session name (default: freeConv)":              "セッション名 (デフォルト: freeConv)",

		// Configuration flags
		"YAML configuration file": "YAML設定ファイル",
		"Preset (freeConv or BG), chosen from the session name by default": "プリセット (freeConv または BG)。デフォルトはセッション名から選択",
		"Site shown on the left (default: Mordor)":  "左側に表示するサイト (デフォルト: Mordor)",
		"Site shown on the right (default: Gondor)": "右側に表示するサイト (デフォルト: Gondor)",

		// Alignment flags
		"Reference frame index (default: 10)":                            "基準フレーム番号 (デフォルト: 10)",
		"Allowed reference frame discrepancy in seconds (default: 0.02)": "基準フレームの許容誤差 (秒、デフォルト: 0.02)",
		"Rate of the resampling timeline (default: 30)":                  "再サンプリングのタイムラインのフレームレート (デフォルト: 30)",
		"Drift fallback: resample or nearest":                            "ずれた場合の方法: resample または nearest",

		// Video flags
		"Downscale filter: area, catmullrom, bilinear or nearest": "縮小フィルタ: area、catmullrom、bilinear、nearest",
		"Scale both sources concurrently":                         "2つのソースを並行して縮小",
		"Output codec tag (default: mp4v)":                        "出力コーデックタグ (デフォルト: mp4v)",
		"Encoder quality passed to ffmpeg":                        "ffmpegに渡すエンコード品質",
		"Count frames by decoding both videos (slow)":             "両方の動画をデコードしてフレーム数を数える (低速)",
		"Follow the resample table frame by frame":                "再サンプリング表に従ってフレームを選ぶ",
		"Frames between progress messages (default: 1000)":        "進捗メッセージの間隔フレーム数 (デフォルト: 1000)",
		"Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)":   "ffmpegのパス (未指定時は FFMPEG_PATH、次に PATH)",
		"Path to ffprobe (falls back to FFPROBE_PATH, then PATH)": "ffprobeのパス (未指定時は FFPROBE_PATH、次に PATH)",

		// Export flags
		"Start time formats: mat, json, s3 (default: mat)":   "開始時刻の形式: mat、json、s3 (デフォルト: mat)",
		"S3 bucket for start times":                          "開始時刻を保存するS3バケット",
		"S3 key prefix":                                      "S3キーのプレフィックス",
		"AWS region (default: AWS configuration chain)":      "AWSリージョン (デフォルト: AWS設定チェーン)",
		"AWS shared config profile":                          "AWS共有設定のプロファイル",
		"Use path-style addressing for S3-compatible stores": "S3互換ストレージでパス形式のアドレスを使う",
		"Also upload the combined video":                     "結合した動画もアップロード",
		"Write a Markdown summary of the run to this path":   "実行結果のMarkdownサマリーをこのパスに書き出す",

		// Debug flags
		"Save alignment data and composed frame snapshots":            "アライメントデータと合成フレームのスナップショットを保存",
		"Directory for debug output (default: ./debug)":               "デバッグ出力先ディレクトリ (デフォルト: ./debug)",
		"Save every Nth composed frame when debugging (default: 500)": "デバッグ時にNフレームごとに合成フレームを保存 (デフォルト: 500)",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル (debug、info、warn、error)",
		"Log format (console, pretty, json)":   "ログ形式 (console、pretty、json)",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Errors
		"expected <input_dir> <pair> [session]": "<input_dir> <pair> [session] を指定してください",
		"invalid pair number %q":                "不正なペア番号 %q",
		"interrupted":                           "中断されました",
	})
}
