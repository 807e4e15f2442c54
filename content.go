// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

// ContentType tags the variants of the content union on the wire.
type ContentType string

const (
	ContentTypeText   ContentType = "text"
	ContentTypeRetina ContentType = "retina"
	ContentTypeStatus ContentType = "status"
	ContentTypeBlob   ContentType = "blob"
)

// Content is the closed set of message payload kinds. The interface is
// sealed so that adding a variant forces every type switch over it to
// be revisited.
type Content interface {
	Type() ContentType

	sealedContent()
}

var (
	_ Content = TextBody{}
	_ Content = RetinaBody{}
	_ Content = StatusEvent{}
	_ Content = BlobBody{}
)

// TextBody holds whitespace-canonicalized text.
type TextBody struct {
	CanonicalText string `json:"canonical_text"`
}

func (TextBody) Type() ContentType { return ContentTypeText }
func (TextBody) sealedContent()    {}

// BasisSpec describes the basis grid a retina capture was solved on.
type BasisSpec struct {
	NX               uint32 `json:"nx"`
	NY               uint32 `json:"ny"`
	BasisFingerprint string `json:"basis_fingerprint"`
}

// FoveationSpec is the gaze parameterization of a capture.
type FoveationSpec struct {
	Sigma   float64 `json:"sigma"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// CertBundle carries the quality metrics of a retina solve. It is
// recomputed whenever content is fused.
type CertBundle struct {
	PSNREquivDB             float64 `json:"psnr_equiv_db"`
	FusedVarianceDrop       float64 `json:"fused_variance_drop"`
	FoveationAlignmentScore float64 `json:"foveation_alignment_score"`
	DeterministicHash       string  `json:"deterministic_hash"`
}

// RetinaBody is one canonical retinal observation.
type RetinaBody struct {
	OmegaID   string        `json:"omega_id"`
	BasisSpec BasisSpec     `json:"basis_spec"`
	AHat      []float64     `json:"a_hat"`
	Lambda    float64       `json:"lambda"`
	Foveation FoveationSpec `json:"foveation"`
	Cert      CertBundle    `json:"cert"`
}

func (RetinaBody) Type() ContentType { return ContentTypeRetina }
func (RetinaBody) sealedContent()    {}

// StatusKind enumerates status events.
type StatusKind string

const (
	StatusDelivered   StatusKind = "delivered"
	StatusRead        StatusKind = "read"
	StatusTypingStart StatusKind = "typing-start"
	StatusTypingStop  StatusKind = "typing-stop"
)

// StatusEvent is a delivery/read receipt referencing a digest, or an
// ephemeral typing notification.
type StatusEvent struct {
	Kind      StatusKind `json:"kind"`
	DigestAck *Digest    `json:"digest_ack,omitempty"`
	At        Timestamp  `json:"at,omitempty"`
}

func (StatusEvent) Type() ContentType { return ContentTypeStatus }
func (StatusEvent) sealedContent()    {}

// BlobBody describes a binary payload that lives in the byte store.
type BlobBody struct {
	MIME         string `json:"mime"`
	Size         int64  `json:"len"`
	ObjectDigest Digest `json:"object_digest"`
}

func (BlobBody) Type() ContentType { return ContentTypeBlob }
func (BlobBody) sealedContent()    {}
