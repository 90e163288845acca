package memory_test

import (
	"testing"

	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/dsl"
	"github.com/aretw0/botflow/pkg/ports/tests"
)

func TestMemoryLoader_Contract(t *testing.T) {
	b := dsl.New("greeter")
	b.Add("start").Command("/start").Go("hello")
	b.Add("hello").Message("Hello!")
	flow := b.MustBuild()

	tests.GraphLoaderContractTest(t, memory.NewLoader(flow), flow)
}
