package model

import (
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// User is a registered member. The password field holds the encoded hash and
// never appears in wire payloads.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Password    string `json:"password,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	PicturePath string `json:"picture_path,omitempty"`

	// PictureFile carries base64 picture bytes attached for one response.
	PictureFile string `json:"-"`
}

var _ entity.Serializable = (*User)(nil)
var _ entity.PictureBearer = (*User)(nil)

func (u *User) EntityID() string   { return u.ID }
func (u *User) EntityKind() string { return KindUser }

func (u *User) Attribute(name string) (interface{}, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "firstname":
		return u.Firstname, true
	case "lastname":
		return u.Lastname, true
	case "phone":
		return u.Phone, true
	case "mobile":
		return u.Mobile, true
	case "picturePath":
		return u.PicturePath, true
	}
	return nil, false
}

func (u *User) GetPicturePath() string        { return u.PicturePath }
func (u *User) SetPicturePath(path string)    { u.PicturePath = path }
func (u *User) AttachPicture(encoded string)  { u.PictureFile = encoded }

// Payload serializes the user for the wire. The guard is unused because a
// user never nests another entity.
func (u *User) Payload(_ entity.Guard) map[string]interface{} {
	data := map[string]interface{}{
		"id":        u.ID,
		"email":     u.Email,
		"firstname": u.Firstname,
		"lastname":  u.Lastname,
	}
	if u.Phone != "" {
		data["phone"] = u.Phone
	}
	if u.Mobile != "" {
		data["mobile"] = u.Mobile
	}
	if u.PictureFile != "" {
		data["picture"] = u.PictureFile
	}
	return data
}
