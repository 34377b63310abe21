package diagnose

import "strings"

// libraryPatterns maps each ecosystem library to the identifiers whose
// presence in a report implicates it. Matching is case-insensitive with a
// case-sensitive fallback so camel-case component names also count.
var libraryPatterns = []struct {
	library  string
	patterns []string
}{
	{"langgraph", []string{
		"langgraph",
		"StateGraph",
		"CompiledGraph",
		"ToolNode",
		"tool_node",
		"pregel",
		"MemorySaver",
		"SqliteSaver",
		"PostgresSaver",
		"checkpoint",
		"create_agent",
		"create_react_agent",
		"MessagesState",
		"AgentState",
	}},
	{"langchain", []string{
		"langchain",
		"langchain_core",
		"langchain_community",
		"langchain_openai",
		"ChatOpenAI",
		"ChatAnthropic",
		"ChatGoogleGenerativeAI",
		"BaseChatModel",
		"BaseRetriever",
		"RunnableSequence",
		"LCEL",
		"StructuredTool",
		"@tool",
		"BaseTool",
		"AgentExecutor",
	}},
	{"langsmith", []string{
		"langsmith",
		"LangSmith",
		"tracing",
		"LANGSMITH_API_KEY",
		"LANGSMITH_PROJECT",
		"run_tree",
		"trace",
	}},
}

var libraryRepos = map[string]string{
	"langgraph": "langchain-ai/langgraph",
	"langchain": "langchain-ai/langchain",
	"langsmith": "langchain-ai/langsmith-sdk",
}

// detectConfidenceSaturation is the hit count at which detection
// confidence reaches 1.0.
const detectConfidenceSaturation = 5

// DetectLibraries scans report text for ecosystem identifiers. Primary is
// the library with the most distinct pattern hits; confidence saturates at
// five total hits.
func DetectLibraries(text string) LibraryDetection {
	textLower := strings.ToLower(text)

	var all []string
	var components []string
	counts := make(map[string]int)
	seen := make(map[string]bool)

	for _, lp := range libraryPatterns {
		count := 0
		for _, pattern := range lp.patterns {
			if strings.Contains(textLower, strings.ToLower(pattern)) || strings.Contains(text, pattern) {
				count++
				if !seen[pattern] {
					seen[pattern] = true
					components = append(components, pattern)
				}
			}
		}
		if count > 0 {
			counts[lp.library] = count
			all = append(all, lp.library)
		}
	}

	if len(counts) == 0 {
		return LibraryDetection{
			Primary:      "unknown",
			AllLibraries: []string{},
			Components:   []string{},
			Confidence:   0.0,
		}
	}

	primary := ""
	total := 0
	for _, lp := range libraryPatterns {
		c, ok := counts[lp.library]
		if !ok {
			continue
		}
		total += c
		if primary == "" || c > counts[primary] {
			primary = lp.library
		}
	}

	confidence := float64(total) / detectConfidenceSaturation
	if confidence > 1.0 {
		confidence = 1.0
	}

	return LibraryDetection{
		Primary:      primary,
		AllLibraries: all,
		Components:   components,
		Confidence:   confidence,
	}
}

// RepoForLibrary maps a detected library to its issue tracker. Returns ""
// for unknown libraries; callers fall back to the configured repo list.
func RepoForLibrary(library string) string {
	return libraryRepos[library]
}
