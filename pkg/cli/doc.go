// Package cli provides shared terminal plumbing for the tvpilot tools:
// lipgloss styles and a boxed live-view frame, log capture for in-frame
// display, structured output formatting, and request file loading.
package cli
