package di

import (
	"sync"
	"testing"
)

type greeter struct{ name string }

func TestContainer_RegisterAndGet(t *testing.T) {
	c := NewContainer()
	c.Register("answer", 42)

	if got := c.Get("answer").(int); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
}

func TestContainer_UnknownServicePanics(t *testing.T) {
	c := NewContainer()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()
	c.Get("missing")
}

func TestRegisterToken_LazyAndSingleton(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*greeter]("test.greeter")

	calls := 0
	RegisterToken(c, tok, func(ServiceRegistry) *greeter {
		calls++
		return &greeter{name: "wallet"}
	})

	if calls != 0 {
		t.Fatalf("factory ran before first Get")
	}

	a := GetToken(c, tok)
	b := GetToken(c, tok)

	if a != b {
		t.Error("GetToken should return the same instance")
	}
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestRegisterToken_ResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("name", "dashboard")

	tok := NewToken[*greeter]("test.greeter")
	RegisterToken(c, tok, func(sr ServiceRegistry) *greeter {
		return &greeter{name: sr.Get("name").(string)}
	})

	if got := GetToken(c, tok).name; got != "dashboard" {
		t.Errorf("name = %q, want dashboard", got)
	}
}

func TestContainer_RegisterOverridesFactory(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory("svc", func(ServiceRegistry) any { return "factory" })
	c.Register("svc", "fixed")

	if got := c.Get("svc"); got != "fixed" {
		t.Errorf("Get() = %v, want fixed", got)
	}
}

func TestContainer_ConcurrentGet(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*greeter]("test.greeter")
	RegisterToken(c, tok, func(ServiceRegistry) *greeter { return &greeter{} })

	var wg sync.WaitGroup
	results := make([]*greeter, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetToken(c, tok)
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatal("concurrent Get returned different instances")
		}
	}
}
