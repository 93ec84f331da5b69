// Package extract turns contract text into clauses, parties, relationships
// and risks for the audit pipeline.
//
// PatternExtractor is keyword driven and works offline. LLMExtractor sends
// the text to an OpenAI-compatible chat completion endpoint and parses the
// JSON it returns, repairing malformed output where it can.
package extract
