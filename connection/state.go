/*
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
"License"); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
"AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package connection

import (
	"fmt"

	"github.com/k-vswitch/switchd/ofp"
	"github.com/pkg/errors"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type State int

const (
	StateClosed State = iota
	StateHelloWait
	StateFeatureWait
	StateEstablished
)

var stateNames = map[State]string{
	StateClosed:      "closed",
	StateHelloWait:   "hello-wait",
	StateFeatureWait: "feature-wait",
	StateEstablished: "established",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event is something that moves a connection between states.
type Event int

const (
	EventHello Event = iota
	EventFeaturesRequested
	EventFeaturesReply
	// EventKeepalive covers ECHO and ERROR messages, which are accepted
	// while waiting for the features reply.
	EventKeepalive
	EventMessage
)

var eventNames = map[Event]string{
	EventHello:             "hello",
	EventFeaturesRequested: "features-requested",
	EventFeaturesReply:     "features-reply",
	EventKeepalive:         "keepalive",
	EventMessage:           "message",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

var transitions = map[State]map[Event]State{
	StateClosed: {
		EventHello: StateHelloWait,
	},
	StateHelloWait: {
		EventFeaturesRequested: StateFeatureWait,
		EventFeaturesReply:     StateEstablished,
	},
	StateFeatureWait: {
		EventFeaturesReply: StateEstablished,
		EventKeepalive:     StateFeatureWait,
	},
	StateEstablished: {
		EventKeepalive: StateEstablished,
		EventMessage:   StateEstablished,
	},
}

// Transition returns the state reached from s on e. Pairs that are not
// listed in the transition table fail with ErrInvalidTransition.
func Transition(s State, e Event) (State, error) {
	next, ok := transitions[s][e]
	if !ok {
		return s, errors.Wrapf(ErrInvalidTransition, "%s in state %s", e, s)
	}
	return next, nil
}

// eventFor classifies an incoming message. The types used here share
// their numbers in OpenFlow 1.0 and 1.3.
func eventFor(typ uint8) Event {
	switch typ {
	case ofp.TypeHello:
		return EventHello
	case ofp.TypeFeaturesReply:
		return EventFeaturesReply
	case ofp.TypeEchoRequest, ofp.TypeEchoReply, ofp.TypeError:
		return EventKeepalive
	}
	return EventMessage
}
