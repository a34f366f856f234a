// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tagemu

// Kind labels one inbound reader command.
type Kind int

// Command kinds, ordered by classification priority.
const (
	// KindUnknown marks frames outside the recognized grammar. They are
	// logged and deliberately left unanswered.
	KindUnknown Kind = iota
	// KindWake is a REQA or WUPA short frame, answered with the ATQA.
	KindWake
	// KindHalt ends the current application session without a reply.
	KindHalt
	// KindAnticollision is a cascade level 1 identifier request.
	KindAnticollision
	// KindSelect is a cascade level 1 select with the full identifier.
	KindSelect
	// KindActivate is a RATS, answered with the ATS.
	KindActivate
	// KindIBlock is an information block without a CID byte.
	KindIBlock
	// KindIBlockCID is an information block carrying a CID byte.
	KindIBlockCID
	// KindChaining marks a chained block; the reply is always empty.
	KindChaining
	// KindVendorAck is answered with the XOR acknowledgement.
	KindVendorAck
	// KindPing is a link-control ping, answered with a fixed pong.
	KindPing
	// KindDeselect is answered with a fixed deselect acknowledgement.
	KindDeselect
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindWake:
		return "wake"
	case KindHalt:
		return "halt"
	case KindAnticollision:
		return "anticollision"
	case KindSelect:
		return "select"
	case KindActivate:
		return "activate"
	case KindIBlock:
		return "i-block"
	case KindIBlockCID:
		return "i-block+cid"
	case KindChaining:
		return "chaining"
	case KindVendorAck:
		return "vendor-ack"
	case KindPing:
		return "ping"
	case KindDeselect:
		return "deselect"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// IsStandard reports whether the kind is answered from the precomputed
// activation responses instead of the application table.
func (k Kind) IsStandard() bool {
	switch k {
	case KindWake, KindHalt, KindAnticollision, KindSelect, KindActivate:
		return true
	case KindUnknown, KindIBlock, KindIBlockCID, KindChaining,
		KindVendorAck, KindPing, KindDeselect:
		return false
	default:
		return false
	}
}

// Classification is the outcome of inspecting one reader frame.
type Classification struct {
	// Kind is the recognized command class.
	Kind Kind
	// HeaderLen is the number of reader framing bytes preceding the
	// application payload. Zero for everything except I-blocks.
	HeaderLen int
}

// Classify labels an inbound frame against the fixed protocol grammar.
// Rules are checked in priority order and the first match wins; the
// activation primitives additionally require their exact frame lengths.
func Classify(frame []byte) Classification {
	n := len(frame)
	switch {
	case n == lenShortFrame && (frame[0] == cmdREQA || frame[0] == cmdWUPA):
		return Classification{Kind: KindWake}
	case n == lenHalt && frame[0] == cmdHLTA:
		return Classification{Kind: KindHalt}
	case n == lenAnticollision && frame[0] == cmdSelectCL1 && frame[1] == nvbAnticollision:
		return Classification{Kind: KindAnticollision}
	case n == lenSelect && frame[0] == cmdSelectCL1 && frame[1] == nvbSelectConfirm:
		return Classification{Kind: KindSelect}
	case n == lenRATS && frame[0] == cmdRATS:
		return Classification{Kind: KindActivate}
	}

	if n == 0 {
		return Classification{Kind: KindUnknown}
	}

	switch frame[0] {
	case pcbIBlock, pcbIBlockAlt:
		return Classification{Kind: KindIBlock, HeaderLen: 1}
	case pcbIBlockCID, pcbIBlockCIDAlt:
		return Classification{Kind: KindIBlockCID, HeaderLen: 2}
	case pcbChaining, pcbChainingAlt:
		return Classification{Kind: KindChaining}
	case vendorCmdA, vendorCmdB:
		return Classification{Kind: KindVendorAck}
	case pcbPing:
		return Classification{Kind: KindPing}
	case pcbDeselect, pcbDeselectAlt:
		return Classification{Kind: KindDeselect}
	default:
		return Classification{Kind: KindUnknown}
	}
}
