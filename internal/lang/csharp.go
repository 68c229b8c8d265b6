package lang

import (
	"github.com/smacker/go-tree-sitter/csharp"
)

// CSharp is the name under which the C# language is registered.
const CSharp = "csharp"

func init() {
	Languages[CSharp] = &Language{
		Name:       CSharp,
		Extensions: []string{".cs"},
		lang:       csharp.GetLanguage(),
	}
}
