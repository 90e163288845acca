package botflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/dsl"
)

// ExampleEngine_Handle runs a two-turn conversation: a command that asks a
// question and the reply that resumes the flow.
func ExampleEngine_Handle() {
	// 1. Describe the flow with the builder.
	b := dsl.New("signup")
	b.Add("start").Command("/start").Go("ask")
	b.Add("ask").Input("What is your name?", "name").Go("greet")
	b.Add("greet").Message("Welcome, {{name}}!")

	loader, err := b.Loader()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Without WithStore, conversations live in memory.
	engine, err := botflow.New(loader)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, text := range []string{"/start", "Ada"} {
		out, err := engine.Handle(ctx, "signup", domain.TextEvent("chat-1", text))
		if err != nil {
			log.Fatal(err)
		}
		for _, a := range out.Result.Actions {
			fmt.Printf("[%s] %s\n", out.Result.Route, a.Text)
		}
	}

	// Output:
	// [command] What is your name?
	// [resume] Welcome, Ada!
}

// ExampleEngine_Simulate shows that simulation leaves the store untouched.
func ExampleEngine_Simulate() {
	b := dsl.New("menu")
	b.Add("start").Command("/start").Go("hello")
	b.Add("hello").Message("Pick one").Go("choices")
	b.Add("choices").Buttons(dsl.Inline("Tea", "tea"), dsl.Inline("Coffee", "coffee"))

	loader, err := b.Loader()
	if err != nil {
		log.Fatal(err)
	}
	engine, err := botflow.New(loader)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	out, err := engine.Simulate(ctx, "menu", domain.TextEvent("chat-1", "/start"), nil)
	if err != nil {
		log.Fatal(err)
	}
	a := out.Result.Actions[0]
	fmt.Println(a.Text, len(a.Buttons))

	state, _ := engine.State(ctx, "menu", "chat-1")
	fmt.Println(state.Pending())

	// Output:
	// Pick one 2
	// false
}
