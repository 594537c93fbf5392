package locale

const helpEnglish = `You can manage your notes by voice or text. Some examples:

Create a note:      "create note shopping list"
Find a note:        "find note groceries"
After a single note is found you can say:
  "update" or "update description: bring documents"
  "add to note: get bread"
  "delete"
  "add sub-note called oil change"

Every create, update and delete is confirmed first. Answer "yes" or "no".`

const helpHebrew = `אפשר לנהל את הרשומות בקול או בטקסט. לדוגמה:

יצירת רשומה:   "תיצור רשומה רשימת קניות"
חיפוש רשומה:   "תמצא רשומה חלב"
אחרי שנמצאה רשומה אחת אפשר לומר:
  "עדכן" או "עדכן תיאור: להביא מסמכים"
  "הוסף לרשומה: לקנות לחם"
  "מחק"
  "הוסף תת רשומה בשם טסט"

כל יצירה, עדכון ומחיקה דורשים אישור. ענו "כן" או "לא".`

// Help returns the usage guide for lang.
func Help(lang Language) string {
	if lang.IsHebrew() {
		return helpHebrew
	}
	return helpEnglish
}
