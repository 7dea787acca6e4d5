package tools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/effective-security/toolgate/tools"
)

func Test_GetDescriptions(t *testing.T) {
	a := tools.NewLocalTool("alpha", "first tool", nil, echoExec)
	b := tools.NewLocalTool("beta", "second tool", nil, echoExec)

	exp := "\n```json\n{\n\t\"Tools\": [\n\t\t{\n\t\t\t\"Name\": \"alpha\",\n\t\t\t\"Description\": \"first tool\"\n\t\t},\n\t\t{\n\t\t\t\"Name\": \"beta\",\n\t\t\t\"Description\": \"second tool\"\n\t\t}\n\t]\n}\n```\n"
	assert.Equal(t, exp, tools.GetDescriptions(a, b))
}
