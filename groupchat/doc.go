// Package groupchat drives a multi-agent conversation.
//
// A Controller owns the configuration (participants, selection and
// termination strategies, history reducer, iteration ceiling). Each
// Conversation it creates owns one append-only history and one State, and is
// consumed as a pull-based sequence:
//
//	ctrl, err := groupchat.New(registry,
//	    groupchat.WithSelection(&strategy.RoundRobinSelection{Terminal: "orchestrator"}),
//	    groupchat.WithTermination(strategy.NewMentionTermination("TERMINATE", "orchestrator")),
//	)
//	conv := ctrl.NewConversation()
//	for msg, err := range conv.Run(ctx, "Write an article about tides.") {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(msg)
//	}
//	fmt.Println(conv.State().Reason)
//
// Exactly one agent runs at a time. Breaking out of the loop stops the
// conversation; no work continues in the background.
package groupchat
