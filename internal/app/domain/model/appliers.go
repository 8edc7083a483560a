package model

import (
	"fmt"
	"time"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// Applier writes one request field onto an entity, coercing the raw request
// value. Appliers are the only path from request data into entity state, so
// undeclared fields can never be set.
type Applier func(e entity.Entity, value interface{}) error

// FieldTable maps declared field names to their appliers for one kind.
type FieldTable map[string]Applier

// Appliers returns the field application table for a kind, or nil when the
// kind is unknown.
func Appliers(kind string) FieldTable {
	return tables[kind]
}

var tables = map[string]FieldTable{
	KindUser: {
		"email":       userField(func(u *User, v string) { u.Email = v }),
		"firstname":   userField(func(u *User, v string) { u.Firstname = v }),
		"lastname":    userField(func(u *User, v string) { u.Lastname = v }),
		"password":    userField(func(u *User, v string) { u.Password = v }),
		"phone":       userField(func(u *User, v string) { u.Phone = v }),
		"mobile":      userField(func(u *User, v string) { u.Mobile = v }),
		"picturePath": userField(func(u *User, v string) { u.PicturePath = v }),
	},
	KindOrganization: {
		"name":  orgField(func(o *Organization, v string) { o.Name = v }),
		"type":  orgField(func(o *Organization, v string) { o.Type = v }),
		"email": orgField(func(o *Organization, v string) { o.Email = v }),
		"phone": orgField(func(o *Organization, v string) { o.Phone = v }),
		"description": func(e entity.Entity, value interface{}) error {
			o, err := asOrganization(e)
			if err != nil {
				return err
			}
			lines, err := asStringSlice(value)
			if err != nil {
				return fmt.Errorf("description: %w", err)
			}
			o.Description = lines
			return nil
		},
		"referent": func(e entity.Entity, value interface{}) error {
			o, err := asOrganization(e)
			if err != nil {
				return err
			}
			u, ok := value.(*User)
			if !ok {
				return fmt.Errorf("referent: expected a resolved user")
			}
			o.Referent = u
			o.ReferentID = u.ID
			return nil
		},
		"picturePath": orgField(func(o *Organization, v string) { o.PicturePath = v }),
	},
	KindProject: {
		"title": projectField(func(p *Project, v string) { p.Title = v }),
		"description": func(e entity.Entity, value interface{}) error {
			p, err := asProject(e)
			if err != nil {
				return err
			}
			lines, err := asStringSlice(value)
			if err != nil {
				return fmt.Errorf("description: %w", err)
			}
			p.Description = lines
			return nil
		},
		"startDate": func(e entity.Entity, value interface{}) error {
			p, err := asProject(e)
			if err != nil {
				return err
			}
			d, err := asDate(value)
			if err != nil {
				return fmt.Errorf("startDate: %w", err)
			}
			p.StartDate = d
			return nil
		},
		"endDate": func(e entity.Entity, value interface{}) error {
			p, err := asProject(e)
			if err != nil {
				return err
			}
			d, err := asDate(value)
			if err != nil {
				return fmt.Errorf("endDate: %w", err)
			}
			p.EndDate = &d
			return nil
		},
		"creator": func(e entity.Entity, value interface{}) error {
			p, err := asProject(e)
			if err != nil {
				return err
			}
			u, ok := value.(*User)
			if !ok {
				return fmt.Errorf("creator: expected a resolved user")
			}
			p.Creator = u
			p.CreatorID = u.ID
			return nil
		},
		"organization": func(e entity.Entity, value interface{}) error {
			p, err := asProject(e)
			if err != nil {
				return err
			}
			o, ok := value.(*Organization)
			if !ok {
				return fmt.Errorf("organization: expected a resolved organization")
			}
			p.Organization = o
			p.OrganizationID = o.ID
			return nil
		},
		"picturePath": projectField(func(p *Project, v string) { p.PicturePath = v }),
	},
	KindActivity: {
		"title":   activityField(func(a *Activity, v string) { a.Title = v }),
		"summary": activityField(func(a *Activity, v string) { a.Summary = v }),
		"postDate": func(e entity.Entity, value interface{}) error {
			a, err := asActivity(e)
			if err != nil {
				return err
			}
			d, err := asDate(value)
			if err != nil {
				return fmt.Errorf("postDate: %w", err)
			}
			a.PostDate = d
			return nil
		},
		"isPublic": func(e entity.Entity, value interface{}) error {
			a, err := asActivity(e)
			if err != nil {
				return err
			}
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("isPublic: expected a boolean")
			}
			a.IsPublic = b
			return nil
		},
		"creator": func(e entity.Entity, value interface{}) error {
			a, err := asActivity(e)
			if err != nil {
				return err
			}
			u, ok := value.(*User)
			if !ok {
				return fmt.Errorf("creator: expected a resolved user")
			}
			a.Creator = u
			a.CreatorID = u.ID
			return nil
		},
		"project": func(e entity.Entity, value interface{}) error {
			a, err := asActivity(e)
			if err != nil {
				return err
			}
			p, ok := value.(*Project)
			if !ok {
				return fmt.Errorf("project: expected a resolved project")
			}
			a.Project = p
			a.ProjectID = p.ID
			return nil
		},
		"organization": func(e entity.Entity, value interface{}) error {
			a, err := asActivity(e)
			if err != nil {
				return err
			}
			o, ok := value.(*Organization)
			if !ok {
				return fmt.Errorf("organization: expected a resolved organization")
			}
			a.Organization = o
			a.OrganizationID = o.ID
			return nil
		},
		"picturePath": activityField(func(a *Activity, v string) { a.PicturePath = v }),
	},
}

func userField(set func(*User, string)) Applier {
	return func(e entity.Entity, value interface{}) error {
		u, ok := e.(*User)
		if !ok {
			return fmt.Errorf("expected a user, got %s", e.EntityKind())
		}
		s, err := asString(value)
		if err != nil {
			return err
		}
		set(u, s)
		return nil
	}
}

func orgField(set func(*Organization, string)) Applier {
	return func(e entity.Entity, value interface{}) error {
		o, err := asOrganization(e)
		if err != nil {
			return err
		}
		s, err := asString(value)
		if err != nil {
			return err
		}
		set(o, s)
		return nil
	}
}

func projectField(set func(*Project, string)) Applier {
	return func(e entity.Entity, value interface{}) error {
		p, err := asProject(e)
		if err != nil {
			return err
		}
		s, err := asString(value)
		if err != nil {
			return err
		}
		set(p, s)
		return nil
	}
}

func activityField(set func(*Activity, string)) Applier {
	return func(e entity.Entity, value interface{}) error {
		a, err := asActivity(e)
		if err != nil {
			return err
		}
		s, err := asString(value)
		if err != nil {
			return err
		}
		set(a, s)
		return nil
	}
}

func asOrganization(e entity.Entity) (*Organization, error) {
	o, ok := e.(*Organization)
	if !ok {
		return nil, fmt.Errorf("expected an organization, got %s", e.EntityKind())
	}
	return o, nil
}

func asProject(e entity.Entity) (*Project, error) {
	p, ok := e.(*Project)
	if !ok {
		return nil, fmt.Errorf("expected a project, got %s", e.EntityKind())
	}
	return p, nil
}

func asActivity(e entity.Entity) (*Activity, error) {
	a, ok := e.(*Activity)
	if !ok {
		return nil, fmt.Errorf("expected an activity, got %s", e.EntityKind())
	}
	return a, nil
}

func asString(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", value)
	}
	return s, nil
}

func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a string list, got %T", value)
}

func asDate(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("the date must be in the format %s", DateLayout)
		}
		return d, nil
	}
	return time.Time{}, fmt.Errorf("expected a date, got %T", value)
}
