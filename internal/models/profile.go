package models

// Profile is created together with its User and holds feed preferences.
// The followed-users half of the profile lives in the follows edge table.
type Profile struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	UserID             uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	FollowedCategories []Category `json:"followed_categories" gorm:"serializer:json;type:text"`
}

// FollowsCategory reports whether c is one of the profile's followed categories
func (p *Profile) FollowsCategory(c Category) bool {
	for _, fc := range p.FollowedCategories {
		if fc == c {
			return true
		}
	}
	return false
}

// EditProfileForm defines the profile edit form body
type EditProfileForm struct {
	FollowedCategories []string `form:"followed_categories" json:"followed_categories"`
}
