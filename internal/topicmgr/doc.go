// Package topicmgr keeps the catalogue of bus topics used by the relay.
//
// Topics are declared once, usually at package level, and registered with
// a Manager so that tooling such as troom-cli can list them:
//
//	var MemberJoined = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "presence.member.joined",
//		Description: "A username joined a room",
//	})
//
//	topicmgr.Default().MustRegister(MemberJoined)
//
// Framework topics belong to the relay core (ws, presence, server). Module
// topics belong to a named feature module such as chat or assistant.
package topicmgr
