// ABOUTME: Fixed prompt templates for the planner, executors, and the two synthesis branches.
// ABOUTME: Builders take the dynamic pieces (schema context, query, plan, branch output) and compose the message text.
package analyst

import "fmt"

// sampleDataHeader delimits the appended column values in the qualitative
// branch's composed prompt.
const sampleDataHeader = "=== SAMPLE TEXT DATA ==="

// AgentInstructions is the standing instruction for the sandboxed
// code-interpreter agent bound to the dataset.
func AgentInstructions(fileName string) string {
	return fmt.Sprintf(
		"You have a Code Interpreter tool that can analyze %q. "+
			"When the user provides Python code, run it on the dataset and return all results.",
		fileName,
	)
}

// plannerInstructions builds the planner's developer message: the dataset
// schema plus the two JSON output shapes it must choose between.
func plannerInstructions(fileName, schemaContext string) string {
	return fmt.Sprintf(
		"You are a planning assistant for a data analyst. The dataset is %q with this schema:\n\n"+
			"%s\n\n"+
			"Decide if the question is numeric/quantitative vs. text/qualitative. "+
			"If numeric => produce JSON:\n"+
			`{"type":"quantitative","code":"(python to run against the dataset)"}`+"\n\n"+
			"If text => produce JSON:\n"+
			`{"type":"qualitative","column":"somecol","prompt":"(instructions for the text analysis). Please include direct quotes where possible."}`+"\n\n"+
			"Respond with the JSON object only, no surrounding prose. "+
			"Keep your plan minimal. Only choose the text-based approach if the user specifically wants quotes/text insights.",
		fileName, schemaContext,
	)
}

// codeMessage wraps generated code in the message posted to the execution
// thread.
func codeMessage(code string) string {
	return "Here is the Python code from the analysis plan. " +
		"Please run it and provide all outputs (text, plots, data). " +
		"Code:\n\n" + code
}

// runInstructions is the per-run instruction for the execution agent.
func runInstructions(fileName string) string {
	return fmt.Sprintf("Execute the code on %q and return all results.", fileName)
}

// qualSystemPrompt is the developer message for the qualitative branch's
// free-text synthesis call.
const qualSystemPrompt = "You are a helpful assistant that includes direct quotes if possible."

// qualComposedPrompt appends the collected column values to the planner's
// prompt under a clearly delimited section header.
func qualComposedPrompt(prompt, joinedValues string) string {
	return prompt + "\n\n" + sampleDataHeader + "\n" + joinedValues
}

// synthQuantSystem and synthQualSystem are the developer messages for the
// two synthesis branches.
const (
	synthQuantSystem = "You summarize a quantitative analysis in plain Markdown with no mention of images."
	synthQualSystem  = "You summarize a qualitative text analysis in plain Markdown with direct quotes."
)

// synthQuantMessage builds the synthesis request for the quantitative branch.
func synthQuantMessage(userQuery, planRaw, analysisOutput string) string {
	return fmt.Sprintf(
		"The user asked:\n'%s'\n\n"+
			"The analysis plan/code:\n%s\n\n"+
			"The code execution outputs:\n%s\n\n"+
			"Please produce a concise final answer in **Markdown** with minimal jargon. "+
			"Start with a direct numeric/statistical answer, then a short explanation. "+
			"Do **not** embed any images or plots in your text. NEVER RETURN OR SHOW ANY CODE. "+
			"Do not mention the underlying multi-stage process, and never suggest that the dataset needs further refinement/cleaning.",
		userQuery, planRaw, analysisOutput,
	)
}

// synthQualMessage builds the synthesis request for the qualitative branch.
func synthQualMessage(userQuery, planRaw, analysisOutput string) string {
	return fmt.Sprintf(
		"The user asked:\n'%s'\n\n"+
			"The analysis plan (qualitative text analysis):\n%s\n\n"+
			"The text analysis outputs:\n%s\n\n"+
			"Please produce a final answer in **Markdown** that emphasizes the rich text insights, "+
			"including direct quotes if they appear in the analysis. Begin with a direct conclusion, "+
			"then highlight any themes or sentiments. "+
			"Do not mention the underlying multi-stage process, and never suggest that the dataset "+
			"needs further refinement/cleaning. Present the text-based findings in a structured, "+
			"user-friendly manner.",
		userQuery, planRaw, analysisOutput,
	)
}
