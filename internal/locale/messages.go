package locale

import "fmt"

// Key identifies a catalog message.
type Key string

const (
	MsgCreateConfirm       Key = "create.confirm"
	MsgCreateConfirmAgain  Key = "create.confirm_again"
	MsgCreateElsewhere     Key = "create.exists_elsewhere"
	MsgSubNoteConfirm      Key = "subnote.confirm"
	MsgSubNoteTitleMissing Key = "subnote.title_missing"
	MsgOverrideConfirm     Key = "create.override"
	MsgCreated             Key = "create.done"
	MsgUntitled            Key = "create.untitled"
	MsgCancelled           Key = "cancelled"
	MsgUpdateAskContent    Key = "update.ask_content"
	MsgUpdateContentAgain  Key = "update.ask_content_again"
	MsgUpdateConfirm       Key = "update.confirm"
	MsgUpdateConfirmAgain  Key = "update.confirm_again"
	MsgFieldUpdateConfirm  Key = "update.fields_confirm"
	MsgUpdated             Key = "update.done"
	MsgDeleteConfirm       Key = "delete.confirm"
	MsgDeleteConfirmAgain  Key = "delete.confirm_again"
	MsgDeleted             Key = "delete.done"
	MsgDeletedCascade      Key = "delete.done_cascade"
	MsgNotFound            Key = "not_found"
	MsgFoundCount          Key = "find.count"
	MsgFoundOne            Key = "find.single"
	MsgSaveFailed          Key = "save_failed"
	MsgApology             Key = "apology"
)

var catalog = map[Language]map[Key]string{
	English: {
		MsgCreateConfirm:       "Do you want me to create a new note called '%s'?",
		MsgCreateConfirmAgain:  "Please confirm or cancel: create a new note called '%s'?",
		MsgCreateElsewhere:     "A note called '%s' already exists under '%s'. Do you want me to create a new top-level note with that name?",
		MsgSubNoteConfirm:      "Do you want me to add a sub-note called '%s' under '%s'?",
		MsgSubNoteTitleMissing: "Could not extract sub-note title. Please specify the title.",
		MsgOverrideConfirm:     "A note with the name '%s' already exists. Do you want to override it?",
		MsgCreated:             "Created note: %s",
		MsgUntitled:            "Untitled",
		MsgCancelled:           "OK, I've cancelled the action.",
		MsgUpdateAskContent:    "What would you like to update? Please say the new content for the note.",
		MsgUpdateContentAgain:  "Please provide the new content to update the note.",
		MsgUpdateConfirm:       "Update the note '%s' with the following content?\n%s",
		MsgUpdateConfirmAgain:  "Please confirm or cancel: update the note '%s' with the following content?\n%s",
		MsgFieldUpdateConfirm:  "Apply these changes to the note '%s'?\n%s",
		MsgUpdated:             "Updated note: %s",
		MsgDeleteConfirm:       "Delete the note '%s'?",
		MsgDeleteConfirmAgain:  "Please confirm or cancel: delete the note '%s'?",
		MsgDeleted:             "Deleted note: %s",
		MsgDeletedCascade:      "Deleted note: %s (and %d sub-notes)",
		MsgNotFound:            "Note not found",
		MsgFoundCount:          "Found %d notes",
		MsgFoundOne:            "Found 1 note. Would you like to update, delete, or add a sub-note?",
		MsgSaveFailed:          "I couldn't save your notes, so nothing was changed. Please try again.",
		MsgApology:             "Sorry, I ran into a problem understanding your request. Could you please clarify what you want to do?",
	},
	Hebrew: {
		MsgCreateConfirm:       "האם ליצור רשומה חדשה בשם '%s'?",
		MsgCreateConfirmAgain:  "אנא אשר או בטל: ליצור רשומה חדשה בשם '%s'?",
		MsgCreateElsewhere:     "רשומה בשם '%s' כבר קיימת תחת '%s'. האם ליצור רשומה חדשה ברמה העליונה בשם זה?",
		MsgSubNoteConfirm:      "האם להוסיף תת-רשומה בשם '%s' תחת '%s'?",
		MsgSubNoteTitleMissing: "לא הצלחתי לזהות את שם תת-הרשומה. אנא ציין את השם.",
		MsgOverrideConfirm:     "רשומה בשם '%s' כבר קיימת. האם להחליף אותה?",
		MsgCreated:             "נוצרה רשומה: %s",
		MsgUntitled:            "ללא שם",
		MsgCancelled:           "בסדר, ביטלתי את הפעולה.",
		MsgUpdateAskContent:    "מה תרצה לעדכן? אנא אמור את התוכן החדש לרשומה.",
		MsgUpdateContentAgain:  "אנא אמור את התוכן החדש לעדכון הרשומה.",
		MsgUpdateConfirm:       "האם לעדכן את הרשומה '%s' עם התוכן הבא?\n%s",
		MsgUpdateConfirmAgain:  "אנא אשר או בטל: לעדכן את הרשומה '%s' עם התוכן הבא?\n%s",
		MsgFieldUpdateConfirm:  "האם להחיל את השינויים הבאים על הרשומה '%s'?\n%s",
		MsgUpdated:             "עודכנה רשומה: %s",
		MsgDeleteConfirm:       "האם למחוק את הרשומה '%s'?",
		MsgDeleteConfirmAgain:  "אנא אשר או בטל: למחוק את הרשומה '%s'?",
		MsgDeleted:             "נמחקה רשומה: %s",
		MsgDeletedCascade:      "נמחקה רשומה: %s (יחד עם %d תתי-רשומות)",
		MsgNotFound:            "רשומה לא נמצאה",
		MsgFoundCount:          "נמצאו %d רשומות",
		MsgFoundOne:            "נמצאה רשומה אחת. האם תרצה לעדכן, למחוק או להוסיף תת-רשומה?",
		MsgSaveFailed:          "לא הצלחתי לשמור את הרשומות ולכן לא בוצע שינוי. אנא נסה שוב.",
		MsgApology:             "מצטער, לא הצלחתי להבין את הבקשה שלך. תוכל לנסח שוב או להבהיר מה תרצה לעשות?",
	},
}

// Text renders key in lang, falling back to English when lang has no entry.
func Text(lang Language, key Key, args ...any) string {
	format, ok := catalog[lang][key]
	if !ok {
		format, ok = catalog[English][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Keys returns every key defined for lang.
func Keys(lang Language) []Key {
	out := make([]Key, 0, len(catalog[lang]))
	for k := range catalog[lang] {
		out = append(out, k)
	}
	return out
}
