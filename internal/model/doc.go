// Package model defines the data structures shared across pngcipher.
//
// This package contains the following main types:
//   - Severity: the level attached to every log entry produced by the core
//   - Entry, LogFunc, ProgressFunc: the callback contract between the core
//     (chunk parsing, RSA transforms, pixel pipeline) and its presenters
//   - InspectionReport: a structured summary of a parsed PNG container
//
// The models are kept free of codec dependencies so that every other package,
// including the chunk codec itself, can import them without cycles.
package model
