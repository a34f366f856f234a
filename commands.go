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

// ISO/IEC 14443-3 Type A reader command codes
const (
	cmdREQA      = 0x26 // request, 7-bit short frame
	cmdWUPA      = 0x52 // wake-up, 7-bit short frame
	cmdHLTA      = 0x50 // halt
	cmdSelectCL1 = 0x93 // anticollision/select, cascade level 1
	cmdRATS      = 0xE0 // request for answer to select
)

// NVB values distinguishing the two uses of the cascade select code
const (
	nvbAnticollision = 0x20 // full anticollision request
	nvbSelectConfirm = 0x70 // select with complete identifier
)

// ISO/IEC 14443-4 protocol control bytes recognized by the classifier.
// I-blocks alternate the low bit with the block number.
const (
	pcbIBlock       = 0x02 // I-block without CID
	pcbIBlockAlt    = 0x03
	pcbIBlockCID    = 0x0A // I-block carrying a CID byte
	pcbIBlockCIDAlt = 0x0B
	pcbChaining     = 0x1A // chained block, payload continues
	pcbChainingAlt  = 0x1B
	pcbPing         = 0xBA // link-control ping
	pcbDeselect     = 0xCA // deselect request
	pcbDeselectAlt  = 0xC2
)

// Vendor acknowledgement codes answered with an XOR transform
const (
	vendorCmdA   = 0xAA
	vendorCmdB   = 0xBB
	vendorAckXor = 0x11
)

// Fixed link-control replies
var (
	pingReply     = []byte{0xAB, 0x01}
	deselectReply = []byte{0xCA, 0x01}
)

// Frame length requirements enforced by the classifier
const (
	lenShortFrame    = 1 // REQA / WUPA
	lenHalt          = 4 // HLTA + CRC
	lenAnticollision = 2 // SEL + NVB
	lenSelect        = 9 // SEL + NVB + UID + BCC + CRC
	lenRATS          = 4 // RATS + param + CRC
)
