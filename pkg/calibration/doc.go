// Package calibration holds the per-unit carrier frequency table and the
// offline procedure that discovers it. It contains:
//
//   - Table: the (channel, purpose) -> frequency mapping consumed by the
//     navigation engine, checked for completeness at startup
//   - Finder: the calibration procedure that, with a wall placed at a known
//     distance, walks the carrier frequency upwards until the receiver stops
//     reporting the wall
//   - Result: what one Finder run reports back to the CLI
//
// Calibration never runs during navigation. Its output is written to the
// config file and loaded from there on the next start.
package calibration
