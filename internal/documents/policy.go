package documents

import (
	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// uploaders maps each thread type to the doc types it accepts and who may upload them.
var uploaders = map[enums.ThreadType]map[enums.DocType][]enums.Role{
	enums.ThreadTypeFundingRequest: {
		enums.DocTypeFinalAgreement: {enums.RoleInvestor},
		enums.DocTypePaymentSlip:    {enums.RoleInvestor},
	},
	enums.ThreadTypePartnerRequest: {
		enums.DocTypeFlyer:     {enums.RoleSeller},
		enums.DocTypeAgreement: {enums.RoleAffiliate},
	},
	enums.ThreadTypeConnection: {
		enums.DocTypeIntro: {enums.RoleSeller, enums.RoleInvestor},
		enums.DocTypePitch: {enums.RoleSeller, enums.RoleInvestor},
		enums.DocTypeOther: {enums.RoleSeller, enums.RoleInvestor},
	},
}

// allowedMimeTypes are the sniffed media types accepted for any thread document.
var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
}

// AcceptsDocType reports whether the thread type accepts docType at all.
func AcceptsDocType(threadType enums.ThreadType, docType enums.DocType) bool {
	_, ok := uploaders[threadType][docType]
	return ok
}

// CanUpload reports whether role may upload docType on the thread type.
func CanUpload(threadType enums.ThreadType, docType enums.DocType, role enums.Role) bool {
	for _, allowed := range uploaders[threadType][docType] {
		if allowed == role {
			return true
		}
	}
	return false
}

// VisibleDocTypes returns the doc types viewer may list, or nil for no restriction.
// On partner threads each side only sees what the other side uploaded for it.
func VisibleDocTypes(threadType enums.ThreadType, viewer enums.Role) []enums.DocType {
	if threadType != enums.ThreadTypePartnerRequest {
		return nil
	}
	switch viewer {
	case enums.RoleAffiliate:
		return []enums.DocType{enums.DocTypeFlyer}
	case enums.RoleSeller:
		return []enums.DocType{enums.DocTypeAgreement}
	default:
		return nil
	}
}
