package usecase

// Presentation is the user-facing part of a notification
type Presentation struct {
	Title string
	Body  string
	Sound string
}

// Presenter maps a change group to its title, body and sound
type Presenter interface {
	Present(group ChangeGroup) Presentation
}
