// Package prompt renders the system and user messages sent to a generator.
package prompt

import (
	"strings"
	"text/template"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
)

const systemMessage = `
Here are a set of instructions you are required to follow:
> You will be given a question, to which you must generate a response.
> You will also be given some context with respect to the question provided.
> You have to generate a response that is based on the context.
    >> You may elaborate on the context mentioned.
    >> You may add additional information which is related to the context.
    >> Your response must be crisp, consisting of a very detailed overview of the context explaining it thoroughly, wherever required.
> Additionally if the context provided seems to be unfit or unsuitable to the question provided, then say the document does not consist of such information in a creative way. Do not go into too many details when the context is unrelated or unsuitable with respect to the question.
---
Here is the context for this question:
{{.Context}}
---
`

const userMessage = `
Here is the question:
{{.Query}}
---
Your response:
`

var (
	systemTemplate = template.Must(template.New("system").Parse(systemMessage))
	userTemplate   = template.Must(template.New("user").Parse(userMessage))
)

type templateData struct {
	Context string
	Query   string
}

// Compose renders the prompt for query with the relevant documents as context.
// Documents are joined by newlines; no documents give an empty context block.
func Compose(relevantDocuments []string, query string) (model.Prompt, error) {
	data := templateData{
		Context: strings.Join(relevantDocuments, "\n"),
		Query:   query,
	}

	var system strings.Builder
	err := systemTemplate.Execute(&system, data)
	if err != nil {
		return model.Prompt{}, helper.NewError("render system message", err)
	}

	var user strings.Builder
	err = userTemplate.Execute(&user, data)
	if err != nil {
		return model.Prompt{}, helper.NewError("render user message", err)
	}

	return model.Prompt{
		System: system.String(),
		User:   user.String(),
	}, nil
}
