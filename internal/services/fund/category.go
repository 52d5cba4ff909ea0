package fund

import "strings"

// classifyCategory infers a coarse fund category from its name. The live
// source publishes no category field, so this fills metadata on first
// sight. Order matters: specific markers win over the broad ones.
func classifyCategory(name string) string {
	switch {
	case name == "":
		return ""
	case strings.Contains(name, "QDII"):
		return "QDII"
	case strings.Contains(name, "REIT"):
		return "REITs"
	case strings.Contains(name, "FOF"):
		return "FOF"
	case strings.Contains(name, "货币"), strings.Contains(name, "现金"):
		return "货币型"
	case strings.Contains(name, "债"):
		return "债券型"
	case strings.Contains(name, "指数"), strings.Contains(name, "ETF"), strings.Contains(name, "联接"):
		return "指数型"
	case strings.Contains(name, "股票"):
		return "股票型"
	case strings.Contains(name, "混合"):
		return "混合型"
	default:
		return "其他"
	}
}
