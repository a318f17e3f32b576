package charts

import (
	"fmt"
	"math"
	"strings"
)

// maxBars keeps xychart-beta readable; Mermaid starts overlapping labels
// somewhere past this.
const maxBars = 40

// Mermaid renders c as a fenced Mermaid block. Empty charts render as "".
// Stacked bars are drawn as one bar series per dataset.
func Mermaid(c Chart) string {
	if c.IsEmpty() || len(c.Labels) == 0 {
		return ""
	}
	if c.Type == Pie {
		return mermaidPie(c)
	}
	return mermaidBars(c)
}

func mermaidPie(c Chart) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", c.Title))
	data := c.Datasets[0].Data
	for i, l := range c.Labels {
		if i < len(data) && data[i] > 0 {
			sb.WriteString(fmt.Sprintf("    %s : %d\n", quote(l), data[i]))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

func mermaidBars(c Chart) string {
	n := min(len(c.Labels), maxBars)

	labels := make([]string, n)
	for i := range n {
		labels[i] = quote(c.Labels[i])
	}

	maxVal := 0
	for i := range n {
		sum := 0
		for _, d := range c.Datasets {
			if i < len(d.Data) {
				if c.Type == StackedBar {
					sum += d.Data[i]
				} else {
					sum = max(sum, d.Data[i])
				}
			}
		}
		maxVal = max(maxVal, sum)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", quote(c.Title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Count\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	for _, d := range c.Datasets {
		values := make([]string, n)
		for i := range n {
			v := 0
			if i < len(d.Data) {
				v = d.Data[i]
			}
			values[i] = fmt.Sprintf("%d", v)
		}
		sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

func quote(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "'") + "\""
}
