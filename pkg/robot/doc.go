// Package robot defines the value types shared by the sensing, navigation and
// drive packages:
//
//   - Channel: one of the three fixed infrared sensor positions
//   - Purpose: what a calibrated carrier frequency is used to detect
//   - Frequency: a carrier frequency in Hz
//   - Command: a steering command produced by the navigation engine and
//     executed by the drive controller
//
// Keeping them in one place lets the daemon, the status API and the CLI share
// the same JSON representation.
package robot
