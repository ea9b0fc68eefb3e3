// Package agentloop implements loom's tool-calling orchestration loop.
//
// A Loop turns one user prompt into a bounded sequence of rounds: send the
// conversation to the completion service, inspect the response, dispatch any
// requested tool calls sequentially, append the results as a synthetic tool
// turn, and repeat. The loop ends when the model answers without tool calls
// (Done) or when the round budget is exhausted (LimitReached).
//
// The package is organized around these concepts:
//
//   - Loop: the orchestrator. Explicit states AwaitingModel,
//     DispatchingTools, Done, LimitReached; a fresh Conversation per prompt.
//   - ToolRegistry: the static tool descriptor list and dispatcher. Expected
//     tool failures become Tool Result content; they never end the run.
//   - ExecutionEnvironment: where tool effects happen (local filesystem and
//     shell in LocalExecutionEnvironment).
//   - EventSink: synchronous operator notifications, one per dispatched tool
//     call, delivered in dispatch order.
//
// # Quick start
//
//	registry := agentloop.NewToolRegistry()
//	agentloop.RegisterCoreTools(registry, 10000, 600000)
//	env := agentloop.NewLocalExecutionEnvironment("/path/to/project")
//
//	loop := agentloop.NewLoop(client, registry, env, nil, nil)
//	result, err := loop.Run(ctx, "Create a hello.py file")
package agentloop
