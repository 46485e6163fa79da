// Package privacy finds metadata in PNG chunks that can identify the author
// of an image, the device it came from, or where and when it was made.
//
// Each kind of check is a CheckAnalyzer working on the chunk summaries of an
// inspection report. The Analyzer runs every registered check, removes
// duplicates and orders the findings by risk:
//
//   - Critical: GPS coordinates and secret material such as private keys
//   - High: author, copyright owner, device serial numbers, e-mail addresses
//   - Medium: camera make and model, host computer, payment addresses
//   - Low: editing software, timestamps, free-form comments
//
// Findings in chunks that anonymize removes are marked Removable.
//
// # Usage
//
//	report := parser.Inspect(ctx, f, name)
//	if err := privacy.NewAnalyzer().Inspect(ctx, report); err != nil {
//		return err
//	}
package privacy
