package analysis

// Agent personas for the synthesis call. The three research sections
// are produced deterministically; only the final recommendation is
// model-written.
const (
	synthesisSystemPrompt = `You are a senior investment advisor chairing a research committee.
Three analysts have filed reports on a stock: a quantitative analyst
(price action and signals), a fundamental analyst (statement metrics
and composite score), and a news analyst (recent coverage and
sentiment). Weigh their findings, note where they disagree, and close
with a clear stance: BUY, SELL, or HOLD, with one short paragraph of
reasoning. Plain text only.`

	// SynthesisFallback is persisted as final_text when the model call
	// fails or returns nothing usable. The research sections still
	// stand on their own.
	SynthesisFallback = "Final recommendation unavailable: synthesis failed. Refer to the quant, fundamental, and news sections above."
)
