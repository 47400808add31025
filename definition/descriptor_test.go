package definition

import (
	"reflect"
	"testing"
)

func TestDescriptorDefaultsToSingleton(t *testing.T) {
	d := &Descriptor{}
	if !d.IsSingleton() {
		t.Error("descriptor without explicit scope must be a singleton")
	}
	if (&Descriptor{Scope: ScopePrototype}).IsSingleton() {
		t.Error("prototype scope must not report singleton")
	}
}

func TestResolvedTypeFallsBackToDeclaredType(t *testing.T) {
	declared := reflect.TypeOf("")
	d := &Descriptor{Type: declared}
	if d.ResolvedType() != declared {
		t.Error("unresolved descriptor must fall back to the declared type")
	}

	cached := reflect.TypeOf(0)
	d.CacheResolvedType(cached)
	if d.ResolvedType() != cached {
		t.Error("cached type must take precedence")
	}
}

func TestDisplayTypePreference(t *testing.T) {
	d := &Descriptor{TypeName: "OrderService", Type: reflect.TypeOf("")}
	if d.DisplayType() != "OrderService" {
		t.Errorf("declared type name must win, got %q", d.DisplayType())
	}
	d.TypeName = ""
	if d.DisplayType() != "string" {
		t.Errorf("expected reflect type string, got %q", d.DisplayType())
	}
	if (&Descriptor{}).DisplayType() != "" {
		t.Error("empty descriptor must render an empty display type")
	}
}

func TestSetPropertyOverwritesByName(t *testing.T) {
	d := &Descriptor{}
	d.SetProperty("host", NewTypedString("a"))
	d.SetProperty("port", NewTypedString("1"))
	d.SetProperty("host", NewTypedString("b"))

	if len(d.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(d.Properties))
	}
	if d.GetProperty("host").(*TypedString).Value != "b" {
		t.Error("setting an existing property must overwrite in place")
	}
	if d.GetProperty("absent") != nil {
		t.Error("absent property must return nil")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := &Descriptor{
		Factory:         func() string { return "" },
		ConstructorArgs: []Value{NewTypedString("arg")},
		Properties:      []Property{{Name: "p", Value: NewTypedString("v")}},
		DependsOn:       []string{"other"},
	}
	original.CacheResolvedType(reflect.TypeOf(""))

	clone := original.Clone()
	clone.SetProperty("extra", NewTypedString("x"))
	clone.ConstructorArgs = append(clone.ConstructorArgs, NewTypedString("more"))
	clone.DependsOn[0] = "changed"

	if len(original.Properties) != 1 || len(original.ConstructorArgs) != 1 {
		t.Error("mutating the clone must not affect the original")
	}
	if original.DependsOn[0] != "other" {
		t.Error("clone must copy the depends-on slice")
	}
	if clone.ResolvedType() != nil {
		t.Error("clone must not inherit the resolved type cache")
	}
}

func TestMergeFromInheritsAndOverrides(t *testing.T) {
	parent := &Descriptor{
		Factory:         func() string { return "parent" },
		TypeName:        "Base",
		ConstructorArgs: []Value{NewTypedString("parentArg")},
		Properties: []Property{
			{Name: "shared", Value: NewTypedString("fromParent")},
			{Name: "only", Value: NewTypedString("kept")},
		},
		DependsOn: []string{"dep"},
	}
	child := &Descriptor{
		Properties: []Property{
			{Name: "shared", Value: NewTypedString("fromChild")},
		},
	}

	child.MergeFrom(parent)

	if child.Factory == nil || child.TypeName != "Base" {
		t.Error("child without factory must inherit the parent factory and type name")
	}
	if len(child.ConstructorArgs) != 1 {
		t.Error("child without constructor args must inherit the parent args")
	}
	if child.GetProperty("shared").(*TypedString).Value != "fromChild" {
		t.Error("child property must override the parent property")
	}
	if child.GetProperty("only") == nil {
		t.Error("non-conflicting parent properties must be inherited")
	}
	if len(child.DependsOn) != 1 || child.DependsOn[0] != "dep" {
		t.Error("child without depends-on must inherit the parent list")
	}
}

func TestMergeFromKeepsChildFactory(t *testing.T) {
	parent := &Descriptor{Factory: func() string { return "parent" }, TypeName: "Base"}
	child := &Descriptor{Factory: func() int { return 0 }, TypeName: "Child"}

	child.MergeFrom(parent)

	if child.TypeName != "Child" {
		t.Error("child with its own factory must keep its identity")
	}
}

func TestTypedStringDynamicIsSticky(t *testing.T) {
	ts := NewTypedString("${key}")
	if ts.IsDynamic() {
		t.Error("fresh literal must not be dynamic")
	}
	ts.MarkDynamic()
	ts.MarkDynamic()
	if !ts.IsDynamic() {
		t.Error("marking must flip the literal to dynamic")
	}
}

func TestTypedStringTargetType(t *testing.T) {
	if NewTypedString("x").HasTargetType() {
		t.Error("plain literal must have no target type")
	}
	if !NewTypedStringFor("1", reflect.TypeOf(0)).HasTargetType() {
		t.Error("typed literal must report its target type")
	}
}

func TestManagedArrayElementTypeCache(t *testing.T) {
	a := &ManagedArray{ElementTypeName: "string"}
	if a.ResolvedElementType() != nil {
		t.Error("element type must start unresolved")
	}
	a.CacheElementType(reflect.TypeOf(""))
	if a.ResolvedElementType() != reflect.TypeOf("") {
		t.Error("cached element type must be returned")
	}
}
