/*
Package dsl provides a fluent builder for constructing flow graphs in Go.

It is useful for tests, examples and embedding a bot without an editor export.

Example usage:

	b := dsl.New("signup")

	b.Add("start").Command("/start").Describe("Sign up").Go("ask")
	b.Add("ask").Input("What is your email?", "email").
		Validate(domain.ValidateEmail, "That does not look like an email.").
		Go("done")
	b.Add("done").Message("Thanks, we will write to {{email}}.")

	flow, err := b.Build()
*/
package dsl
