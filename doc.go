/*
Package botflow runs chat-bot flows designed as node graphs.

A flow is a directed graph of typed nodes (commands, messages, buttons,
conditions, images, delays, API request descriptions and input waits) as
exported by a visual flow editor. The Engine routes each inbound chat event
(a text message or a button click) to the right entry point of the graph,
walks it breadth-first and returns the ordered actions to deliver, while the
conversation state (pending input node and accumulated variables) is
persisted between turns.

# Architecture

The interpreter is pure: given a graph, an event and a state snapshot it
always produces the same actions. Everything with side effects sits behind
ports:

  - ports.GraphLoader supplies flows (memory, JSON/YAML files).
  - ports.StateStore persists conversations (memory, file, Redis, Badger, Postgres),
    optionally wrapped by encryption or PII-masking middleware.
  - ports.Transport delivers actions (Telegram, or a recorder for simulations).

# Usage

	flow := dsl.New("support")
	flow.Add("start").Command("/start").Go("ask")
	flow.Add("ask").Input("What is your name?", "name").Go("hi")
	flow.Add("hi").Message("Nice to meet you, {{name}}!")

	loader, _ := flow.Loader()
	eng, err := botflow.New(loader)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	out, _ := eng.Handle(ctx, "support", domain.TextEvent("42", "/start"))
	// out.Result.Actions: the prompt; out.State.PendingNodeID == "ask"
	out, _ = eng.Handle(ctx, "support", domain.TextEvent("42", "Ann"))
	// out.Result.Actions: "Nice to meet you, Ann!"

Delivery to a real chat is done by pkg/dispatch over a transport such as
pkg/adapters/telegram, fed by pkg/intake (long polling) or pkg/adapters/http
(webhooks).
*/
package botflow
