package extract

import "strings"

// Schema 期望模型输出的字段描述
const Schema = `- desk_type: (e.g., "standing", "regular")
- location_proximity: (e.g., "marketing team", "window", "quiet area") - specify the target of proximity.
- floor: (e.g., "3rd", "2nd", number)
- time_request: (e.g., "tomorrow afternoon", "now", "next Monday morning")
- specific_features: (e.g., ["dual-monitor", "ergonomic-chair"]) - list any specific equipment mentioned.`

const promptTemplate = `You are an AI assistant helping parse user requests for finding workspaces.
Your task is to extract key information from the user's query and return it as a JSON object.
Focus on extracting the following fields if present:
{schema}

If a field is not mentioned, omit it from the JSON output.
Respond ONLY with the JSON object, nothing else before or after.

User Query: "{query}"
JSON Output:
`

// BuildPrompt 构造抽取提示词；查询中的双引号会被转义
func BuildPrompt(query string) string {
	query = strings.ReplaceAll(strings.TrimSpace(query), `"`, `\"`)
	r := strings.NewReplacer("{schema}", Schema, "{query}", query)
	return r.Replace(promptTemplate)
}
