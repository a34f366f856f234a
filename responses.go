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

import (
	"fmt"

	"github.com/ZaparooProject/go-tagemu/internal/iso14443"
)

// StandardResponses holds the precomputed activation replies indexed by
// the standard classifications. The frames are complete as transmitted:
// SAK and ATS already carry their CRC_A, ATQA and the identifier frame
// are sent without one per ISO/IEC 14443-3.
type StandardResponses struct {
	// ATQA answers wake/request frames.
	ATQA []byte
	// UID answers the cascade level 1 anticollision request:
	// identifier bytes followed by the check byte.
	UID []byte
	// SAK answers the cascade level 1 select.
	SAK []byte
	// ATS answers the protocol activation request.
	ATS []byte
}

// ForKind returns the precomputed reply for a standard classification.
// KindHalt maps to nil: a halt clears the pending reply instead of
// producing one.
func (r *StandardResponses) ForKind(k Kind) []byte {
	switch k {
	case KindWake:
		return r.ATQA
	case KindAnticollision:
		return r.UID
	case KindSelect:
		return r.SAK
	case KindActivate:
		return r.ATS
	case KindHalt, KindUnknown, KindIBlock, KindIBlockCID,
		KindChaining, KindVendorAck, KindPing, KindDeselect:
		return nil
	default:
		return nil
	}
}

// Activation constants for an ISO/IEC 14443-4 capable target.
var (
	// defaultATQA announces a single-size identifier with bit-frame
	// anticollision.
	defaultATQA = [2]byte{0x04, 0x00}
	// defaultSAK has bit 6 set: compliant with ISO/IEC 14443-4.
	defaultSAK = byte(0x20)
	// defaultATS: TL, T0 (TA/TB/TC present, FSCI 5), TA, TB, TC.
	defaultATS = [5]byte{0x05, 0x75, 0x80, 0x60, 0x02}
)

// BuildStandardResponses precomputes the activation reply set for a
// 4-byte identifier. Activation engines with their own hardware
// anticollision may ignore this and answer the primitives themselves.
func BuildStandardResponses(target Target) (*StandardResponses, error) {
	if len(target.UID) != 4 {
		// TODO: cascade level 2 framing for 7-byte identifiers
		return nil, fmt.Errorf("identifier %X has %d bytes: %w",
			target.UID, len(target.UID), ErrTargetLength)
	}

	uidFrame := make([]byte, 0, 5)
	uidFrame = append(uidFrame, target.UID...)
	uidFrame = append(uidFrame, iso14443.BCC(target.UID))

	return &StandardResponses{
		ATQA: []byte{defaultATQA[0], defaultATQA[1]},
		UID:  uidFrame,
		SAK:  iso14443.AppendCRCA([]byte{defaultSAK}),
		ATS:  iso14443.AppendCRCA(defaultATS[:]),
	}, nil
}
