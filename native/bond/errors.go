package bond

import "errors"

var (
	ErrNilState              = errors.New("bond: state not configured")
	ErrNilToken              = errors.New("bond: token capability not configured")
	ErrNilClaims             = errors.New("bond: claim registry not configured")
	ErrInvalidCampaignParams = errors.New("bond: invalid campaign params")
	ErrVenueNotFound         = errors.New("bond: venue not registered")
	ErrCampaignNotFound      = errors.New("bond: campaign not found")
	ErrCampaignActive        = errors.New("bond: campaign still active")
	ErrNotOwner              = errors.New("bond: caller is not the claim owner")
	ErrNotAuthorized         = errors.New("bond: caller not authorized for claim")
	ErrInvalidClaim          = errors.New("bond: unknown claim")
	ErrNothingToClaim        = errors.New("bond: nothing to claim")
)
