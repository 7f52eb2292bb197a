// Package prompt builds the text sent to the generative model: the educational
// free-text prompt, the JSON adjustment prompt for sensor readings, the reframe
// prompts used when an answer comes back blocked, and the system instruction.
package prompt
