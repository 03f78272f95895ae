package llms

// PromptOptions contains the options shared by prompt and streaming calls.
type PromptOptions struct {
	Instructions    string
	Messages        []Message
	Tools           []Tool
	ForcedToolsCall bool
}

// PromptOption modifies the prompt options.
type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system prompt. Repeating this option overwrites
// the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithMessages appends conversation messages to the prompt. Repeating this
// option sequentially adds more messages.
func WithMessages(messages ...Message) PromptOption {
	return func(opts *PromptOptions) {
		opts.Messages = append(opts.Messages, messages...)
	}
}

// WithTools adds tools to the prompt.
func WithTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

// WithForcedTools forces the model to call a tool. Note that any available
// tool can be chosen, not just the ones passed into this option.
func WithForcedTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
		opts.ForcedToolsCall = true
	}
}
