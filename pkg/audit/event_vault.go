package audit

import "fmt"

// VaultEvent represents a change to a vault or its members
type VaultEvent struct {
	Common
	VaultID  string
	Name     string
	MemberID string
	Role     string
}

func (e VaultEvent) MessageID() string {
	return "vault"
}

func (e VaultEvent) Message() string {
	target := fmt.Sprintf("vault %s", e.VaultID)
	if e.MemberID != "" {
		target = fmt.Sprintf("member %s of vault %s", e.MemberID, e.VaultID)
	}
	return e.describe(target)
}

func (e VaultEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("vault", e.VaultID, map[string]string{"name": e.Name, "member": e.MemberID, "role": e.Role})
}

func (e VaultEvent) Record() Record {
	details := map[string]interface{}{}
	if e.Name != "" {
		details["name"] = e.Name
	}
	if e.MemberID != "" {
		details["member_id"] = e.MemberID
		details["role"] = e.Role
	}
	return e.record("vault", e.VaultID, details)
}

// AssetEvent represents a document upload, download or removal
type AssetEvent struct {
	Common
	AssetID  string
	VaultID  string
	FileName string
}

func (e AssetEvent) MessageID() string {
	return "asset"
}

func (e AssetEvent) Message() string {
	return e.describe(fmt.Sprintf("asset %s", e.AssetID))
}

func (e AssetEvent) Severity() Severity {
	if e.Success && e.Action == "download" {
		return SeverityNotice
	}
	return e.Common.Severity()
}

func (e AssetEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("asset", e.AssetID, map[string]string{"vault": e.VaultID, "file": e.FileName})
}

func (e AssetEvent) Record() Record {
	return e.record("asset", e.AssetID, map[string]interface{}{"vault_id": e.VaultID, "file_name": e.FileName})
}

// AnnotationEvent represents a change to an annotation on an asset
type AnnotationEvent struct {
	Common
	AnnotationID string
	AssetID      string
}

func (e AnnotationEvent) MessageID() string {
	return "annotation"
}

func (e AnnotationEvent) Message() string {
	return e.describe(fmt.Sprintf("annotation %s on asset %s", e.AnnotationID, e.AssetID))
}

func (e AnnotationEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("annotation", e.AnnotationID, map[string]string{"asset": e.AssetID})
}

func (e AnnotationEvent) Record() Record {
	return e.record("annotation", e.AnnotationID, map[string]interface{}{"asset_id": e.AssetID})
}
