package taskflow

import (
	"fmt"
	"strings"
)

const simpleChatSystemPrompt = `You are a friendly, capable assistant. You can:
1. Hold everyday conversations
2. Answer general questions
3. Call tools to fetch information when needed
4. Perform mathematical calculations
5. Search for up-to-date information

If the user's question needs fresh information, stock data, or math, call the matching tool.`

func classificationPrompt(request string) string {
	return fmt.Sprintf(`Analyze the user's request and classify it as exactly one of:
1. simple_chat - casual conversation, greetings, basic Q&A
2. research - tasks that need searching for information
3. analysis - tasks that need deep analysis
4. planning - tasks that need a plan or strategy

User request: %s

Return only the label, nothing else.`, request)
}

func planningPrompt(taskType TaskType, task string) string {
	return fmt.Sprintf(`Create a detailed execution plan for the following %s task:

Task: %s

Break the task into concrete steps, each with:
1. a step name
2. the specific action
3. the expected result

Return the plan as JSON in this exact shape:
{
  "steps": [
    {"name": "step name", "action": "specific action", "expected_result": "expected result"}
  ]
}`, taskType, task)
}

func searchQueryPrompt(task string) string {
	return fmt.Sprintf(`Generate 2-3 effective search queries for the following task:

Task: %s

Write queries that will surface relevant, accurate information.
One query per line, no numbering.`, task)
}

func analysisPrompt(task string, results []SearchResult) string {
	var info strings.Builder
	for _, r := range results {
		fmt.Fprintf(&info, "Query: %s\nResults: %s\n\n", r.Query, r.Results)
	}
	return fmt.Sprintf(`Using the collected information, analyze the following task in depth:

Task: %s

Collected information:
%s
Analyze from multiple angles:
1. Summary of the key information
2. Important findings and trends
3. Contrasting viewpoints
4. Potential impact and significance

Organize the analysis in a structured way.`, task, info.String())
}

func reasoningPrompt(task, analysis string) string {
	return fmt.Sprintf(`Based on the analysis, reason step by step to answer the user's question:

Original question: %s
Analysis: %s

Use this reasoning framework:

1. Problem understanding: restate the core question
2. Key factors: identify the factors that drive the answer
3. Logical reasoning:
   - Step 1: [conclusion 1 from evidence A]
   - Step 2: [conclusion 2 from evidence B]
   - Step 3: [combine conclusions 1 and 2 into the final conclusion]
4. Verification: check that the conclusion holds up
5. Final answer: a clear, unambiguous answer

Follow this structure strictly.`, task, analysis)
}

func synthesisPrompt(task, analysis, reasoning string) string {
	return fmt.Sprintf(`Combine all analysis and reasoning into one complete, clear final answer:

Original question: %s

Analysis: %s

Reasoning: %s

Provide:
1. A direct, unambiguous answer
2. Supporting evidence and rationale
3. Relevant background
4. Suggested next steps, if any

Organize the answer in a natural, readable way.`, task, analysis, reasoning)
}
