package syntax

import "testing"

func TestTypeRefString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  *TypeRef
		want string
	}{
		{"nil", nil, ""},
		{"keyword", &TypeRef{Name: "string", Keyword: true}, "string"},
		{"nullable", &TypeRef{Name: "int", Keyword: true, Nullable: true}, "int?"},
		{"qualified", &TypeRef{Qualifier: []string{"System", "ComponentModel"}, Name: "INotifyPropertyChanged"}, "System.ComponentModel.INotifyPropertyChanged"},
		{"generic", &TypeRef{Name: "Dictionary", Args: []*TypeRef{{Name: "string"}, {Name: "int"}}}, "Dictionary<string, int>"},
		{"array", &TypeRef{Name: "byte", Array: true}, "byte[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.ref.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspectSourceOrder(t *testing.T) {
	t.Parallel()

	// if (value == this.name) return; this.name = value; OnPropertyChanged();
	body := &Block{Stmts: []Stmt{
		&If{
			Cond: &Binary{Op: "==", Left: &Ident{Name: "value"}, Right: &MemberAccess{X: &This{}, Name: "name"}},
			Then: &Return{},
		},
		&ExprStmt{X: &Assign{Op: "=", Left: &MemberAccess{X: &This{}, Name: "name"}, Right: &Ident{Name: "value"}}},
		&ExprStmt{X: &Invocation{Fun: &Ident{Name: "OnPropertyChanged"}}},
	}}

	var idents []string
	Inspect(body, func(n Node) bool {
		if id, ok := n.(*Ident); ok {
			idents = append(idents, id.Name)
		}
		return true
	})

	want := []string{"value", "value", "OnPropertyChanged"}
	if len(idents) != len(want) {
		t.Fatalf("idents = %v, want %v", idents, want)
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Errorf("idents[%d] = %q, want %q", i, idents[i], want[i])
		}
	}
}

func TestInspectSkipsChildren(t *testing.T) {
	t.Parallel()

	call := &Invocation{Fun: &Ident{Name: "f"}, Args: []*Arg{{Value: &Ident{Name: "x"}}}}
	var visited int
	Inspect(call, func(n Node) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited %d nodes, want 1", visited)
	}
}

func TestUnparen(t *testing.T) {
	t.Parallel()

	id := &Ident{Name: "x"}
	if got := Unparen(&Paren{X: &Paren{X: id}}); got != id {
		t.Errorf("Unparen = %#v, want %#v", got, id)
	}
}

func TestFileText(t *testing.T) {
	t.Parallel()

	f := &File{Source: []byte("class A {}")}
	if got := f.Text(Span{Start: 6, End: 7}); got != "A" {
		t.Errorf("Text = %q, want A", got)
	}
	if got := f.Text(Span{Start: 5, End: 100}); got != "" {
		t.Errorf("out of range Text = %q, want empty", got)
	}
}
