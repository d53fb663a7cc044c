package views

import (
	"fmt"
	"html/template"
)

var statusColors = map[string]string{
	"open":        "#10b981",
	"in_progress": "#f59e0b",
	"closed":      "#6b7280",
}

var statusLabels = map[string]string{
	"open":        "Open",
	"in_progress": "In Progress",
	"closed":      "Closed",
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"statusColor": StatusColor,
		"statusLabel": StatusLabel,
		"fieldError":  fieldValue,
		"old":         fieldValue,
		"selected": func(current, option any) bool {
			return fmt.Sprint(current) == fmt.Sprint(option)
		},
	}
}

// StatusColor maps a ticket status to its badge color. Unknown values are grey.
func StatusColor(status any) string {
	if c, ok := statusColors[fmt.Sprint(status)]; ok {
		return c
	}
	return statusColors["closed"]
}

// StatusLabel maps a ticket status to its display label. Unknown values are shown as-is.
func StatusLabel(status any) string {
	s := fmt.Sprint(status)
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

func fieldValue(m map[string]string, key string) string {
	return m[key]
}
