package registry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gocrud/beans/definition"
)

type mailer struct {
	Host    string
	Port    int
	Retries int

	initialized bool
}

func (m *mailer) Init() error {
	m.initialized = true
	return nil
}

func TestCreateComponentWithConstructorArgs(t *testing.T) {
	r := NewStandardRegistry()
	err := r.RegisterDefinition("mailer", &definition.Descriptor{
		Factory: func(host string, port int) *mailer {
			return &mailer{Host: host, Port: port}
		},
		ConstructorArgs: []definition.Value{
			definition.NewTypedString("smtp.local"),
			definition.NewTypedStringFor("25", reflect.TypeOf(int(0))),
		},
		Scope: definition.ScopeSingleton,
	})
	if err != nil {
		t.Fatal(err)
	}

	instance, err := r.Get("mailer")
	if err != nil {
		t.Fatal(err)
	}
	m := instance.(*mailer)
	if m.Host != "smtp.local" || m.Port != 25 {
		t.Errorf("constructor arguments not applied: %+v", m)
	}
}

func TestCreateComponentInjectsProperties(t *testing.T) {
	r := NewStandardRegistry()
	err := r.RegisterDefinition("mailer", &definition.Descriptor{
		Factory: func() *mailer { return &mailer{} },
		Properties: []definition.Property{
			{Name: "host", Value: definition.NewTypedString("smtp.local")},
			{Name: "retries", Value: definition.NewTypedStringFor("3", reflect.TypeOf(int(0)))},
		},
		Scope: definition.ScopeSingleton,
	})
	if err != nil {
		t.Fatal(err)
	}

	instance, err := r.Get("mailer")
	if err != nil {
		t.Fatal(err)
	}
	m := instance.(*mailer)
	if m.Host != "smtp.local" || m.Retries != 3 {
		t.Errorf("property injection failed: %+v", m)
	}
	if !m.initialized {
		t.Error("Init callback must run after property injection")
	}
}

func TestCreateComponentNullPropertyZeroesField(t *testing.T) {
	r := NewStandardRegistry()
	err := r.RegisterDefinition("mailer", &definition.Descriptor{
		Factory: func() *mailer { return &mailer{Host: "preset"} },
		Properties: []definition.Property{
			{Name: "host", Value: &definition.Null{}},
		},
		Scope: definition.ScopeSingleton,
	})
	if err != nil {
		t.Fatal(err)
	}

	instance, err := r.Get("mailer")
	if err != nil {
		t.Fatal(err)
	}
	if instance.(*mailer).Host != "" {
		t.Error("null property must reset the field to its zero value")
	}
}

func TestCreateComponentUnknownProperty(t *testing.T) {
	r := NewStandardRegistry()
	err := r.RegisterDefinition("mailer", &definition.Descriptor{
		Factory: func() *mailer { return &mailer{} },
		Properties: []definition.Property{
			{Name: "nope", Value: definition.NewTypedString("x")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Get("mailer")
	var creation *ComponentCreationError
	if !errors.As(err, &creation) {
		t.Fatalf("expected ComponentCreationError for unknown property, got %v", err)
	}
}

func TestFactoryErrorIsWrapped(t *testing.T) {
	r := NewStandardRegistry()
	boom := errors.New("connect refused")
	err := r.RegisterDefinition("svc", &definition.Descriptor{
		Factory: func() (*mailer, error) { return nil, boom },
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Get("svc")
	var creation *ComponentCreationError
	if !errors.As(err, &creation) {
		t.Fatalf("expected ComponentCreationError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("factory error must stay reachable via Unwrap")
	}
}

func TestFactoryNilResultBecomesNullInstance(t *testing.T) {
	r := NewStandardRegistry()
	err := r.RegisterDefinition("svc", &definition.Descriptor{
		Factory: func() *mailer { return nil },
		Scope:   definition.ScopeSingleton,
	})
	if err != nil {
		t.Fatal(err)
	}

	instance, err := r.Get("svc")
	if err != nil {
		t.Fatal(err)
	}
	if !IsNullInstance(instance) {
		t.Errorf("nil factory result must become the null marker, got %v", instance)
	}

	// 空实例通过类型化入口时折叠为 nil
	typed, err := r.GetTyped("svc", reflect.TypeOf(&mailer{}))
	if err != nil {
		t.Fatal(err)
	}
	if typed != nil {
		t.Errorf("typed lookup of null instance must yield nil, got %v", typed)
	}
}

func TestCreateComponentByTypeWithoutFactory(t *testing.T) {
	r := NewStandardRegistry()
	err := r.RegisterDefinition("mailer", &definition.Descriptor{
		Type:  reflect.TypeOf(&mailer{}),
		Scope: definition.ScopeSingleton,
		Properties: []definition.Property{
			{Name: "host", Value: definition.NewTypedString("smtp.local")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	instance, err := r.Get("mailer")
	if err != nil {
		t.Fatal(err)
	}
	if instance.(*mailer).Host != "smtp.local" {
		t.Errorf("reflective construction failed: %+v", instance)
	}
}

type definitionTagger struct {
	tagged []string
}

func (d *definitionTagger) BeforeInit(instance any, name string) (any, error) { return instance, nil }
func (d *definitionTagger) AfterInit(instance any, name string) (any, error)  { return instance, nil }

func (d *definitionTagger) PostProcessMergedDefinition(def *definition.Descriptor, name string) {
	d.tagged = append(d.tagged, name)
	def.SetProperty("host", definition.NewTypedString("patched"))
}

func TestMergedDefinitionHookRunsBeforeInstantiation(t *testing.T) {
	r := NewStandardRegistry()
	tagger := &definitionTagger{}
	r.AddHook(tagger)

	err := r.RegisterDefinition("mailer", &definition.Descriptor{
		Factory: func() *mailer { return &mailer{} },
		Scope:   definition.ScopeSingleton,
	})
	if err != nil {
		t.Fatal(err)
	}

	instance, err := r.Get("mailer")
	if err != nil {
		t.Fatal(err)
	}
	if instance.(*mailer).Host != "patched" {
		t.Error("descriptor mutation from the merged-definition hook must affect creation")
	}
	if len(tagger.tagged) != 1 || tagger.tagged[0] != "mailer" {
		t.Errorf("hook must run exactly once per creation, got %v", tagger.tagged)
	}
}

type objectFactory struct {
	produced any
	err      error
}

func (f *objectFactory) Object() (any, error) { return f.produced, f.err }

func TestObjectFromFactoryRunsAfterInitHooks(t *testing.T) {
	r := NewStandardRegistry()
	var seen []string
	r.AddHook(hookFunc(func(instance any, name string) (any, error) {
		seen = append(seen, name)
		return nil, nil
	}))

	factory := &objectFactory{produced: &mailer{Host: "made"}}
	object, err := r.ObjectFromFactory(factory, "product", true)
	if err != nil {
		t.Fatal(err)
	}
	if object.(*mailer).Host != "made" {
		t.Errorf("unexpected factory product %v", object)
	}
	if len(seen) != 1 || seen[0] != "product" {
		t.Errorf("factory product must pass through the AfterInit chain, got %v", seen)
	}

	seen = nil
	if _, err := r.ObjectFromFactory(factory, "product", false); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Error("synthetic factory products must skip the hook chain")
	}
}

func TestObjectFromFactoryNilProduct(t *testing.T) {
	r := NewStandardRegistry()
	object, err := r.ObjectFromFactory(&objectFactory{}, "empty", true)
	if err != nil {
		t.Fatal(err)
	}
	if !IsNullInstance(object) {
		t.Errorf("nil factory product must become the null marker, got %v", object)
	}
}
