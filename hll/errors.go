/**
 * Copyright 2016 l0vest0rm.hll authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License"): you may
 * not use this file except in compliance with the License. You may obtain
 * a copy of the License at
 *
 *     http: *www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations
 * under the License.
 */

package hll

import "errors"

// ErrIncompatibleParameters is returned by Merge when the two sketches were
// constructed with different (P, W). The receiver's state is left unchanged.
var ErrIncompatibleParameters = errors.New("hll: incompatible parameters")

// ErrInvalidSerialization is returned by UnmarshalBinary/UnmarshalJSON when
// the encoded record violates the wire schema. No partial sketch is left
// behind: the receiver is only modified after every check has passed.
var ErrInvalidSerialization = errors.New("hll: invalid serialization")
