// Package theme produces the widget stylesheet. Output depends only on the
// selected theme.
package theme

import "strings"

// Theme selects the widget palette.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
	// Auto follows the visitor's OS colour-scheme preference.
	Auto Theme = "auto"
)

// Parse maps an attribute value to a Theme. Anything unrecognised is Dark.
func Parse(value string) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(value))) {
	case Light:
		return Light
	case Auto:
		return Auto
	default:
		return Dark
	}
}

const lightPalette = `
  --lsv-bg-color: #ffffff;
  --lsv-text-color: #1e293b;
  --lsv-surface-color: #f8fafc;
  --lsv-border-color: #e2e8f0;
  --lsv-muted-color: #64748b;
  --lsv-input-bg: #ffffff;`

const darkPalette = `
  --lsv-bg-color: #0f172a;
  --lsv-text-color: #e2e8f0;
  --lsv-surface-color: #1e293b;
  --lsv-border-color: #334155;
  --lsv-muted-color: #94a3b8;
  --lsv-input-bg: #0f172a;`

// Stylesheet returns the CSS for t. The widget root carries data-theme.
func Stylesheet(t Theme) string {
	var b strings.Builder
	b.WriteString(":host { display: block; font-family: system-ui, -apple-system, sans-serif; }\n")
	b.WriteString(".widget { --lsv-primary-color: #06b6d4; --lsv-border-radius: 0.5rem;")
	switch t {
	case Light:
		b.WriteString(lightPalette)
	default:
		b.WriteString(darkPalette)
	}
	b.WriteString("\n}\n")
	if t == Auto {
		b.WriteString("@media (prefers-color-scheme: light) {\n.widget[data-theme=\"auto\"] {")
		b.WriteString(lightPalette)
		b.WriteString("\n}\n}\n")
	}
	b.WriteString(baseRules)
	return b.String()
}

const baseRules = `* { box-sizing: border-box; }
.widget { background: var(--lsv-bg-color); color: var(--lsv-text-color); border: 1px solid var(--lsv-border-color); border-radius: var(--lsv-border-radius); padding: 1.5rem; max-width: 480px; margin: 0 auto; }
.step-indicator { display: flex; gap: 0.5rem; margin-bottom: 1.25rem; }
.step-dot { width: 8px; height: 8px; border-radius: 50%; background: var(--lsv-border-color); }
.step-dot.active { background: var(--lsv-primary-color); }
.step-dot.done { background: var(--lsv-primary-color); opacity: 0.5; }
.loading { display: flex; align-items: center; justify-content: center; gap: 0.5rem; padding: 2rem 0; color: var(--lsv-muted-color); font-size: 0.875rem; }
.spinner { width: 20px; height: 20px; border: 2px solid var(--lsv-border-color); border-top-color: var(--lsv-primary-color); border-radius: 50%; animation: spin 0.8s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
.error-box { background: rgba(239, 68, 68, 0.1); border: 1px solid rgba(239, 68, 68, 0.4); border-radius: var(--lsv-border-radius); padding: 0.875rem 1rem; font-size: 0.875rem; margin-bottom: 0.75rem; }
.section-title { font-size: 0.875rem; font-weight: 600; color: var(--lsv-muted-color); margin: 0 0 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; }
.empty-msg { color: var(--lsv-muted-color); font-size: 0.875rem; text-align: center; padding: 1.5rem 0; }
.slot-list { display: flex; flex-direction: column; gap: 0.5rem; }
.slot-card { text-align: left; background: var(--lsv-surface-color); color: inherit; border: 1px solid var(--lsv-border-color); border-radius: var(--lsv-border-radius); padding: 0.875rem 1rem; cursor: pointer; font: inherit; }
.slot-card:hover { border-color: var(--lsv-primary-color); }
.slot-card-title { font-weight: 600; margin: 0; }
.slot-card-meta { color: var(--lsv-muted-color); font-size: 0.8125rem; margin: 0.25rem 0 0; }
.date-grid { display: grid; grid-template-columns: repeat(7, 1fr); gap: 0.25rem; }
.date-header { text-align: center; font-size: 0.75rem; color: var(--lsv-muted-color); padding: 0.25rem 0; }
.date-cell { aspect-ratio: 1; border: 1px solid var(--lsv-border-color); background: var(--lsv-surface-color); color: inherit; border-radius: 0.375rem; cursor: pointer; font: inherit; }
.date-cell.empty { visibility: hidden; }
.date-cell.disabled { opacity: 0.35; cursor: not-allowed; }
.date-cell.selected, .time-btn.selected { background: var(--lsv-primary-color); border-color: var(--lsv-primary-color); color: #ffffff; }
.time-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 0.5rem; }
.time-btn { border: 1px solid var(--lsv-border-color); background: var(--lsv-surface-color); color: inherit; border-radius: 0.375rem; padding: 0.5rem; cursor: pointer; font: inherit; }
.booking-summary { display: flex; flex-direction: column; gap: 0.25rem; background: var(--lsv-surface-color); border-radius: var(--lsv-border-radius); padding: 0.75rem 1rem; margin-bottom: 1rem; font-size: 0.875rem; }
.form-group { display: flex; flex-direction: column; gap: 0.25rem; margin-bottom: 0.75rem; }
.form-label { font-size: 0.8125rem; color: var(--lsv-muted-color); }
.form-input, .form-textarea { background: var(--lsv-input-bg); color: inherit; border: 1px solid var(--lsv-border-color); border-radius: 0.375rem; padding: 0.5rem 0.75rem; font: inherit; }
.actions { display: flex; justify-content: flex-end; margin-top: 1rem; }
.btn-primary { background: var(--lsv-primary-color); color: #ffffff; border: none; border-radius: 0.375rem; padding: 0.625rem 1.25rem; font: inherit; font-weight: 600; cursor: pointer; }
.btn-back, .btn-retry { background: none; border: none; color: var(--lsv-primary-color); cursor: pointer; font: inherit; padding: 0; margin-bottom: 0.75rem; }
.success-view { text-align: center; padding: 1.5rem 0; }
.success-icon { font-size: 2rem; color: var(--lsv-primary-color); }
.success-title { font-size: 1.125rem; font-weight: 600; margin: 0.5rem 0; }
.success-msg { color: var(--lsv-muted-color); font-size: 0.875rem; margin: 0; }
`
