package dispatch

import (
	"fmt"
	"strings"
)

// formatResponse normalizes a backend response into a single human-readable
// string. Commands with a dedicated formatter get richer output; everything
// else falls back to the generic result/output fields.
func formatResponse(command string, response map[string]any) string {
	if command == "summarise" {
		return formatSummariseResponse(command, response)
	}
	return formatGenericResponse(command, response)
}

// formatSummariseResponse surfaces the summary text together with the
// achieved compression ratio and word counts, plus the backend's nested
// timing fields when supplied.
func formatSummariseResponse(command string, response map[string]any) string {
	summary := stringField(response, "summary")
	if summary == "" {
		return formatGenericResponse(command, response)
	}

	var b strings.Builder
	b.WriteString(summary)

	originalLength := intField(response, "original_length")
	summaryLength := intField(response, "summary_length")
	compressionRatio := floatField(response, "compression_ratio")

	b.WriteString("\n\nSummary stats:\n")
	fmt.Fprintf(&b, "- Original: %d words\n", originalLength)
	fmt.Fprintf(&b, "- Summary: %d words (%.1f%%)", summaryLength, compressionRatio*100)

	if perf, ok := response["performance"].(map[string]any); ok {
		b.WriteString("\n\nPerformance:\n")
		fmt.Fprintf(&b, "- Total time: %.2fs\n", floatField(perf, "total_time"))
		fmt.Fprintf(&b, "- Tokenization: %.2fs\n", floatField(perf, "tokenization_time"))
		fmt.Fprintf(&b, "- Generation: %.2fs\n", floatField(perf, "generation_time"))
		fmt.Fprintf(&b, "- Decoding: %.2fs", floatField(perf, "decoding_time"))
	}

	return b.String()
}

func formatGenericResponse(command string, response map[string]any) string {
	if result := stringField(response, "result"); result != "" {
		return result
	}
	if output := stringField(response, "output"); output != "" {
		return output
	}
	return fmt.Sprintf("Command %q executed successfully", command)
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// floatField reads a numeric field; JSON numbers decode as float64.
func floatField(obj map[string]any, key string) float64 {
	f, _ := obj[key].(float64)
	return f
}

func intField(obj map[string]any, key string) int {
	return int(floatField(obj, key))
}
