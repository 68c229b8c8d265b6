package qualname

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/notifyguard/internal/symbols"
	"github.com/phobologic/notifyguard/internal/syntax"
)

//go:embed names.yaml
var defaultNamesYAML []byte

// Names is the table of framework names the analyzers recognize. It is
// configuration data and can be replaced or extended without code changes.
type Names struct {
	NotifyInterface  QualifiedType `yaml:"notify_interface"`
	EventHandler     QualifiedType `yaml:"event_handler"`
	EventArgs        QualifiedType `yaml:"event_args"`
	CallerMemberName QualifiedType `yaml:"caller_member_name"`
	Object           QualifiedType `yaml:"object"`
	String           QualifiedType `yaml:"string"`
	Nullable         QualifiedType `yaml:"nullable"`
	EqualityComparer QualifiedType `yaml:"equality_comparer"`

	EventName    string   `yaml:"event_name"`
	InvokerNames []string `yaml:"invoker_names"`

	ValueTypes     []QualifiedType `yaml:"value_types"`
	ReferenceTypes []QualifiedType `yaml:"reference_types"`
	SafeEquals     []QualifiedType `yaml:"safe_equals"`
	NotifyingBases []QualifiedType `yaml:"notifying_bases"`
}

// UnmarshalYAML decodes a dotted name scalar.
func (q *QualifiedType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: qualified name must be a string", node.Line)
	}
	*q = Parse(node.Value)
	return nil
}

// MarshalYAML encodes the dotted name.
func (q QualifiedType) MarshalYAML() (any, error) { return q.String(), nil }

var (
	defaultNames     *Names
	defaultNamesOnce sync.Once
	defaultNamesErr  error
)

// DefaultNames returns the built-in table. It is parsed once and must not
// be modified; use MergeNames to derive a customized copy.
func DefaultNames() *Names {
	defaultNamesOnce.Do(func() {
		defaultNames, defaultNamesErr = LoadNames(bytes.NewReader(defaultNamesYAML))
		if defaultNamesErr == nil {
			slog.Debug("well-known names loaded",
				slog.Int("invokers", len(defaultNames.InvokerNames)),
				slog.Int("notifying_bases", len(defaultNames.NotifyingBases)),
			)
		}
	})
	if defaultNamesErr != nil {
		panic(fmt.Sprintf("qualname: embedded names.yaml: %v", defaultNamesErr))
	}
	return defaultNames
}

// LoadNames decodes a names table. Unknown keys are rejected.
func LoadNames(r io.Reader) (*Names, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var n Names
	if err := dec.Decode(&n); err != nil {
		if err == io.EOF {
			return &n, nil
		}
		return nil, fmt.Errorf("parsing names table: %w", err)
	}
	return &n, nil
}

// MergeNames returns a copy of base with the non-empty entries of override
// applied. Single names are replaced; lists are extended without duplicates.
func MergeNames(base, override *Names) *Names {
	out := *base
	out.InvokerNames = slices.Clone(base.InvokerNames)
	out.ValueTypes = slices.Clone(base.ValueTypes)
	out.ReferenceTypes = slices.Clone(base.ReferenceTypes)
	out.SafeEquals = slices.Clone(base.SafeEquals)
	out.NotifyingBases = slices.Clone(base.NotifyingBases)
	if override == nil {
		return &out
	}

	for _, pair := range []struct{ dst, src *QualifiedType }{
		{&out.NotifyInterface, &override.NotifyInterface},
		{&out.EventHandler, &override.EventHandler},
		{&out.EventArgs, &override.EventArgs},
		{&out.CallerMemberName, &override.CallerMemberName},
		{&out.Object, &override.Object},
		{&out.String, &override.String},
		{&out.Nullable, &override.Nullable},
		{&out.EqualityComparer, &override.EqualityComparer},
	} {
		if !pair.src.IsZero() {
			*pair.dst = *pair.src
		}
	}
	if override.EventName != "" {
		out.EventName = override.EventName
	}
	for _, name := range override.InvokerNames {
		if !slices.Contains(out.InvokerNames, name) {
			out.InvokerNames = append(out.InvokerNames, name)
		}
	}
	out.ValueTypes = appendUnique(out.ValueTypes, override.ValueTypes)
	out.ReferenceTypes = appendUnique(out.ReferenceTypes, override.ReferenceTypes)
	out.SafeEquals = appendUnique(out.SafeEquals, override.SafeEquals)
	out.NotifyingBases = appendUnique(out.NotifyingBases, override.NotifyingBases)
	return &out
}

func appendUnique(dst, src []QualifiedType) []QualifiedType {
	for _, q := range src {
		if !slices.ContainsFunc(dst, func(d QualifiedType) bool { return d.String() == q.String() }) {
			dst = append(dst, q)
		}
	}
	return dst
}

// IsInvokerName reports whether name is a conventional invoker name.
func (n *Names) IsInvokerName(name string) bool {
	return slices.Contains(n.InvokerNames, name)
}

// Metadata describes the table's types to the binder so that references to
// them resolve even though they are not declared in source.
func (n *Names) Metadata() []symbols.MetadataType {
	object := n.Object.String()
	inpc := n.NotifyInterface.String()
	out := []symbols.MetadataType{
		{
			FullName: inpc,
			Kind:     syntax.Interface,
			Events:   []symbols.MetadataEvent{{Name: n.EventName, Type: n.EventHandler.String()}},
		},
		{FullName: n.EventHandler.String(), Kind: syntax.Class, Sealed: true, Base: object},
		{FullName: n.EventArgs.String(), Kind: syntax.Class, Base: object},
		{FullName: n.CallerMemberName.String(), Kind: syntax.Class, Sealed: true, Base: object},
		{FullName: n.EqualityComparer.String() + "`1", Kind: syntax.Class, Base: object},
	}
	for _, v := range n.ValueTypes {
		out = append(out, symbols.MetadataType{FullName: v.String(), Kind: syntax.Struct, Base: "System.ValueType"})
	}
	for _, r := range appendUnique(slices.Clone(n.ReferenceTypes), n.SafeEquals) {
		out = append(out, symbols.MetadataType{FullName: r.String(), Kind: syntax.Class, Base: object})
	}
	for _, b := range n.NotifyingBases {
		out = append(out, symbols.MetadataType{
			FullName:   b.String(),
			Kind:       syntax.Class,
			Base:       object,
			Interfaces: []string{inpc},
			Notifying:  true,
		})
	}
	return slices.DeleteFunc(out, func(m symbols.MetadataType) bool {
		return m.FullName == "" || m.FullName[0] == '`'
	})
}
