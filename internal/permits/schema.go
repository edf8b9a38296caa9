// internal/permits/schema.go
package permits

import (
	"fmt"

	"github.com/javajoker/move-permit-backend/internal/models"
)

// SlotKey names a document requirement. Keys are only valid for the permit
// types whose registry lists them.
type SlotKey string

const (
	SlotEmiratesIDFront              SlotKey = "emiratesIdFront"
	SlotEmiratesIDBack               SlotKey = "emiratesIdBack"
	SlotPassportCopy                 SlotKey = "passportCopy"
	SlotResidenceVisa                SlotKey = "residenceVisa"
	SlotTenancyContract              SlotKey = "tenancyContract"
	SlotEjariCertificate             SlotKey = "ejariCertificate"
	SlotSecurityDepositReceipt       SlotKey = "securityDepositReceipt"
	SlotDewaActivation               SlotKey = "dewaActivation"
	SlotLandlordNOC                  SlotKey = "landlordNoc"
	SlotBuildingRulesUndertaking     SlotKey = "buildingRulesUndertaking"
	SlotInsuranceCertificate         SlotKey = "insuranceCertificate"
	SlotEmergencyContactForm         SlotKey = "emergencyContactForm"
	SlotBuildingClearanceCertificate SlotKey = "buildingClearanceCertificate"
	SlotDewaFinalBill                SlotKey = "dewaFinalBill"
	SlotDistrictCoolingClearance     SlotKey = "districtCoolingClearance"
	SlotKeyHandoverForm              SlotKey = "keyHandoverForm"
	SlotPowerOfAttorney              SlotKey = "powerOfAttorney"
	SlotPetRegistration              SlotKey = "petRegistration"
	SlotCompanyTradeLicense          SlotKey = "companyTradeLicense"
	SlotForwardingAddressProof       SlotKey = "forwardingAddressProof"
)

// Slot is a named document requirement.
type Slot struct {
	Key      SlotKey `json:"key"`
	Label    string  `json:"label"`
	Required bool    `json:"required"`
}

type slotSet struct {
	required []Slot
	optional []Slot
}

var registry = map[models.PermitType]slotSet{
	models.PermitTypeMoveIn: {
		required: []Slot{
			{Key: SlotEmiratesIDFront, Label: "Emirates ID (Front)", Required: true},
			{Key: SlotEmiratesIDBack, Label: "Emirates ID (Back)", Required: true},
			{Key: SlotPassportCopy, Label: "Passport Copy", Required: true},
			{Key: SlotResidenceVisa, Label: "Residence Visa", Required: true},
			{Key: SlotTenancyContract, Label: "Tenancy Contract", Required: true},
			{Key: SlotEjariCertificate, Label: "Ejari Certificate", Required: true},
			{Key: SlotSecurityDepositReceipt, Label: "Security Deposit Receipt", Required: true},
			{Key: SlotDewaActivation, Label: "DEWA Activation", Required: true},
			{Key: SlotLandlordNOC, Label: "Landlord NOC", Required: true},
			{Key: SlotBuildingRulesUndertaking, Label: "Building Rules Undertaking", Required: true},
			{Key: SlotInsuranceCertificate, Label: "Contents Insurance Certificate", Required: true},
			{Key: SlotEmergencyContactForm, Label: "Emergency Contact Form", Required: true},
		},
		optional: []Slot{
			{Key: SlotPowerOfAttorney, Label: "Power of Attorney"},
			{Key: SlotPetRegistration, Label: "Pet Registration"},
			{Key: SlotCompanyTradeLicense, Label: "Company Trade License"},
		},
	},
	models.PermitTypeMoveOut: {
		required: []Slot{
			{Key: SlotEmiratesIDFront, Label: "Emirates ID (Front)", Required: true},
			{Key: SlotEmiratesIDBack, Label: "Emirates ID (Back)", Required: true},
			{Key: SlotPassportCopy, Label: "Passport Copy", Required: true},
			{Key: SlotTenancyContract, Label: "Tenancy Contract", Required: true},
			{Key: SlotBuildingClearanceCertificate, Label: "Building Clearance Certificate", Required: true},
			{Key: SlotDewaFinalBill, Label: "DEWA Final Bill", Required: true},
			{Key: SlotDistrictCoolingClearance, Label: "District Cooling Clearance", Required: true},
			{Key: SlotLandlordNOC, Label: "Landlord NOC", Required: true},
			{Key: SlotKeyHandoverForm, Label: "Key Handover Form", Required: true},
			{Key: SlotInsuranceCertificate, Label: "Contents Insurance Certificate", Required: true},
		},
		optional: []Slot{
			{Key: SlotPowerOfAttorney, Label: "Power of Attorney"},
			{Key: SlotForwardingAddressProof, Label: "Forwarding Address Proof"},
		},
	},
}

func lookupSet(t models.PermitType) slotSet {
	set, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("permits: unknown permit type %q", t))
	}
	return set
}

// RequiredSlots returns the slots that must be filled before submit, in display order.
func RequiredSlots(t models.PermitType) []Slot {
	return append([]Slot(nil), lookupSet(t).required...)
}

func OptionalSlots(t models.PermitType) []Slot {
	return append([]Slot(nil), lookupSet(t).optional...)
}

// Slots returns required slots followed by optional ones.
func Slots(t models.PermitType) []Slot {
	set := lookupSet(t)
	slots := make([]Slot, 0, len(set.required)+len(set.optional))
	slots = append(slots, set.required...)
	return append(slots, set.optional...)
}

// LookupSlot finds key in the registry of t.
func LookupSlot(t models.PermitType, key SlotKey) (Slot, bool) {
	for _, slot := range Slots(t) {
		if slot.Key == key {
			return slot, true
		}
	}
	return Slot{}, false
}

func IsKnownSlot(t models.PermitType, key SlotKey) bool {
	_, ok := LookupSlot(t, key)
	return ok
}

// ParseSlotKey validates a raw key against t. Unknown permit types are
// reported as errors here since the value usually comes from a request.
func ParseSlotKey(t models.PermitType, raw string) (SlotKey, error) {
	if !t.IsValid() {
		return "", fmt.Errorf("%w: permit type %q", ErrUnknownDocumentSlot, t)
	}
	key := SlotKey(raw)
	if !IsKnownSlot(t, key) {
		return "", fmt.Errorf("%w: %q is not a %s slot", ErrUnknownDocumentSlot, raw, t)
	}
	return key, nil
}
