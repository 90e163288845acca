/*
Package domain contains the core models of the bot flow runtime.

It is kept free of I/O and persistence concerns.

# Key Entities

  - Node: a typed vertex of a flow graph. Its Payload is one of the kind
    structs (Command, Message, Buttons, Condition, Broadcast, Image, Delay,
    APIRequest, InputWait) or Unknown.
  - Edge / Graph / Flow: the directed graph of one bot configuration.
  - Event: an inbound chat event (text or button click).
  - Action / Result: what a traversal produced.
  - State / ConversationKey: the persisted snapshot of one conversation.
*/
package domain
