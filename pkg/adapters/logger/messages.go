package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting pipeline":                                 "パイプラインを開始します",
		"Pipeline completed successfully":                   "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":                     "中断されました。シャットダウン中...",
		"Searching %s for pair %d, session %s":              "%s からペア %d、セッション %s を検索中",
		"Source A: %s":                                      "ソースA: %s",
		"Source B: %s":                                      "ソースB: %s",
		"Alignment: %s, start frames A=%d B=%d":             "アライメント: %s、開始フレーム A=%d B=%d",
		"Video starts at %.6f (%.6f s after shared start)":  "動画の開始時刻 %.6f (共有開始から %.6f 秒後)",
		"Combining into %s":                                 "%s に結合中",
		"Videos: %.3f fps, %dx%d, %.0f and %.0f frames":     "動画: %.3f fps、%dx%d、%.0f / %.0f フレーム",
		"Frame %d written":                                  "%d フレーム書き込み済み",
		"Wrote %d frames":                                   "%d フレームを書き込みました",
		"Start time saved to %s":                            "開始時刻を %s に保存しました",
		"Debug output: %s":                                  "デバッグ出力: %s",
		"Summary saved to %s":                               "サマリーを %s に保存しました",
		"Interrupted after %d frames, output is incomplete": "%d フレームで中断されました。出力は不完全です",
		"No frames written, skipping start time export":     "フレームが書き込まれていないため、開始時刻の出力をスキップします",

		// Orchestration level errors
		"Failed to find input files: %s":       "入力ファイルが見つかりません: %s",
		"Failed to load timestamps: %s":        "タイムスタンプの読み込みに失敗しました: %s",
		"Failed to align timestamps: %s":       "タイムスタンプのアライメントに失敗しました: %s",
		"Failed to combine videos: %s":         "動画の結合に失敗しました: %s",
		"Failed to export start time (%s): %s": "開始時刻の出力に失敗しました (%s): %s",
		"Failed to save debug output: %s":      "デバッグ出力の保存に失敗しました: %s",
		"Failed to write summary: %s":          "サマリーの書き込みに失敗しました: %s",

		// Discovery
		"Searching %s for pair %d session %s":     "%s からペア %d セッション %s を検索中",
		"Source %s video: %s":                     "ソース %s の動画: %s",
		"Source %s timestamps: %s":                "ソース %s のタイムスタンプ: %s",
		"Skipping unreadable directory %s: %v":    "読み取れないディレクトリをスキップします %s: %v",

		// Extract stage
		"Loading timestamps from %s":                    "%s からタイムスタンプを読み込み中",
		"Source %s: %d capture times, %.3f s recorded":  "ソース %s: キャプチャ時刻 %d 件、記録 %.3f 秒",
		"Source %s: dropped %d NaN capture times":       "ソース %s: NaN のキャプチャ時刻を %d 件除外しました",

		// Align stage
		"Reference frames match within %.3f s (diff %.4f s)":                             "基準フレームは %.3f 秒以内で一致 (差 %.4f 秒)",
		"Reference frame drift %.4f s exceeds tolerance, resampling onto %.0f fps timeline": "基準フレームのずれ %.4f 秒が許容値を超えたため、%.0f fps のタイムラインに再サンプリングします",
		"Reference frame drift %.4f s exceeds tolerance, searching nearest frame":           "基準フレームのずれ %.4f 秒が許容値を超えたため、最も近いフレームを検索します",
		"Resample table: %d entries over %.3f s":                                          "再サンプリング表: %d 行、%.3f 秒",
		"Start frames: A=%d B=%d":                                                         "開始フレーム: A=%d B=%d",

		// Combine stage
		"State: %s":                                   "状態: %s",
		"Counting frames by decoding both videos":     "両方の動画をデコードしてフレーム数を数えています",
		"Source A: %.3f fps, %dx%d, %.0f frames":      "ソースA: %.3f fps、%dx%d、%.0f フレーム",
		"Source B: %.3f fps, %dx%d, %.0f frames":      "ソースB: %.3f fps、%dx%d、%.0f フレーム",
		"Writing %s (%s, %.3f fps, %dx%d)":            "%s を書き込み中 (%s、%.3f fps、%dx%d)",
		"Source %s exhausted after %d frames":         "ソース %s は %d フレームで終了しました",
		"A source ended before its start frame, nothing to combine": "開始フレームより前にソースが終了したため、結合するものがありません",
		"Failed to save debug frame %d: %v":           "デバッグフレーム %d の保存に失敗しました: %v",
		"Removed incomplete output %s":               "不完全な出力 %s を削除しました",
		"Failed to remove incomplete output %s: %v":  "不完全な出力 %s の削除に失敗しました: %v",
		"Close source A: %v":                          "ソースAのクローズ: %v",
		"Close source B: %v":                          "ソースBのクローズ: %v",
	})
}
