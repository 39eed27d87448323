// Package logx configures dayrun's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, rotated via lumberjack
//
// Sinks and levels can be swapped at runtime via Service.Apply() without
// invalidating Logger values already handed out to components.
package logx
