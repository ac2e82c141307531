// Package i18n translates message codes for the UI. Unknown languages fall
// back to English and unknown codes to the code itself.
package i18n

import "golang.org/x/text/language"

const DefaultLang = "en"

// Supported lists the languages with a catalog.
var Supported = []string{"en", "fr"}

var catalogs = map[string]map[string]string{
	"en": {
		// field violations
		"required":         "Required",
		"must_be_positive": "Must be greater than zero",
		"out_of_range":     "Must be between 0 and 100",
		"invalid_date":     "Invalid date (YYYY-MM-DD)",
		// domain errors
		"invalid_credentials": "Invalid user name or password",
		"user_name_taken":     "This user name is already taken",
		"project_not_open":    "The project is closed or does not exist",
		"duplicate_serial":    "This serial number is already graded in this project",
		"not_found":           "Not found",
		"no_project_selected": "Select an open project first",
		"validation_failed":   "Please correct the highlighted fields",
		"forbidden":           "You are not allowed to do this",
		"internal_error":      "Something went wrong",
		"bad_request":         "The request could not be read",
		"cannot_change_self":  "You cannot disable or demote your own account",
		// flashes
		"grade_saved":     "Grade saved",
		"preset_saved":    "Preset saved",
		"project_created": "Project created",
		"project_closed":  "Project closed",
		"user_created":    "User created",
		"user_updated":    "User updated",
		"preset_updated":  "Preset updated",
		// labels
		"app_title":       "Gradebook",
		"login":           "Log in",
		"logout":          "Log out",
		"user_name":       "User name",
		"password":        "Password",
		"projects":        "Projects",
		"project":         "Project",
		"grades":          "Grades",
		"new_grade":       "New grade",
		"presets":         "Presets",
		"users":           "Users",
		"name":            "Name",
		"date":            "Date",
		"device_type":     "Device type",
		"status":          "Status",
		"grade_count":     "Grades",
		"select":          "Select",
		"close":           "Close",
		"export_csv":      "Export CSV",
		"create":          "Create",
		"save":            "Save",
		"search":          "Search",
		"serial_number":   "Serial number",
		"preset":          "Preset",
		"none":            "None",
		"brand":           "Brand",
		"brand_other":     "Other brand",
		"model":           "Model",
		"model_exact":     "Exact model",
		"label":           "Label",
		"cpu":             "CPU",
		"ram_gb":          "RAM (GB)",
		"ssd_gb":          "SSD (GB)",
		"touch_status":    "Touch screen",
		"observations":    "Observations",
		"battery_health":  "Battery health (%)",
		"technician":      "Technician",
		"from":            "From",
		"to":              "To",
		"active":          "Active",
		"activate":        "Activate",
		"deactivate":      "Deactivate",
		"role":            "Role",
		"enable":          "Enable",
		"disable":         "Disable",
		"apply_preset":    "Fill from preset",
		"save_as_preset":  "Save as preset",
		"only_mine_today": "My grades today",
		"current_project": "Current project",
		"no_rows":         "Nothing yet",
		"created_by":      "Created by",
		"LAPTOP":          "Laptop",
		"DESKTOP":         "Desktop",
		"OPEN":            "Open",
		"CLOSED":          "Closed",
		"TOUCH":           "Touch",
		"NO_TOUCH":        "No touch",
		"BROKEN":          "Broken touch",
		"TECH":            "Technician",
		"ADMIN":           "Administrator",
		"OTHER":           "Other…",
	},
	"fr": {
		"required":         "Requis",
		"must_be_positive": "Doit être supérieur à zéro",
		"out_of_range":     "Doit être compris entre 0 et 100",
		"invalid_date":     "Date invalide (AAAA-MM-JJ)",

		"invalid_credentials": "Identifiant ou mot de passe invalide",
		"user_name_taken":     "Cet identifiant est déjà utilisé",
		"project_not_open":    "Le projet est clos ou n'existe pas",
		"duplicate_serial":    "Ce numéro de série est déjà noté dans ce projet",
		"not_found":           "Introuvable",
		"no_project_selected": "Sélectionnez d'abord un projet ouvert",
		"validation_failed":   "Veuillez corriger les champs en erreur",
		"forbidden":           "Action non autorisée",
		"internal_error":      "Une erreur est survenue",
		"bad_request":         "La requête est illisible",
		"cannot_change_self":  "Vous ne pouvez pas désactiver ou rétrograder votre propre compte",

		"grade_saved":     "Note enregistrée",
		"preset_saved":    "Modèle enregistré",
		"project_created": "Projet créé",
		"project_closed":  "Projet clos",
		"user_created":    "Utilisateur créé",
		"user_updated":    "Utilisateur mis à jour",
		"preset_updated":  "Modèle mis à jour",

		"app_title":       "Gradebook",
		"login":           "Connexion",
		"logout":          "Déconnexion",
		"user_name":       "Identifiant",
		"password":        "Mot de passe",
		"projects":        "Projets",
		"project":         "Projet",
		"grades":          "Notes",
		"new_grade":       "Nouvelle note",
		"presets":         "Modèles",
		"users":           "Utilisateurs",
		"name":            "Nom",
		"date":            "Date",
		"device_type":     "Type d'appareil",
		"status":          "Statut",
		"grade_count":     "Notes",
		"select":          "Choisir",
		"close":           "Clore",
		"export_csv":      "Exporter en CSV",
		"create":          "Créer",
		"save":            "Enregistrer",
		"search":          "Rechercher",
		"serial_number":   "Numéro de série",
		"preset":          "Modèle",
		"none":            "Aucun",
		"brand":           "Marque",
		"brand_other":     "Autre marque",
		"model":           "Modèle",
		"model_exact":     "Modèle exact",
		"label":           "Libellé",
		"cpu":             "Processeur",
		"ram_gb":          "RAM (Go)",
		"ssd_gb":          "SSD (Go)",
		"touch_status":    "Écran tactile",
		"observations":    "Observations",
		"battery_health":  "Santé batterie (%)",
		"technician":      "Technicien",
		"from":            "Du",
		"to":              "Au",
		"active":          "Actif",
		"activate":        "Activer",
		"deactivate":      "Désactiver",
		"role":            "Rôle",
		"enable":          "Activer",
		"disable":         "Désactiver",
		"apply_preset":    "Remplir depuis le modèle",
		"save_as_preset":  "Enregistrer comme modèle",
		"only_mine_today": "Mes notes du jour",
		"current_project": "Projet en cours",
		"no_rows":         "Rien pour l'instant",
		"created_by":      "Créé par",
		"LAPTOP":          "Portable",
		"DESKTOP":         "Fixe",
		"OPEN":            "Ouvert",
		"CLOSED":          "Clos",
		"TOUCH":           "Tactile",
		"NO_TOUCH":        "Non tactile",
		"BROKEN":          "Tactile cassé",
		"TECH":            "Technicien",
		"ADMIN":           "Administrateur",
		"OTHER":           "Autre…",
	},
}

// T translates code into lang.
func T(lang, code string) string {
	if m, ok := catalogs[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalogs[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks the supported language with the highest weight in an
// Accept-Language header, or DefaultLang. A malformed header counts as empty.
func DetectLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return DefaultLang
	}
	// tags come back sorted by descending q.
	for _, tag := range tags {
		base, _ := tag.Base()
		if b := base.String(); IsSupported(b) {
			return b
		}
	}
	return DefaultLang
}

func IsSupported(lang string) bool {
	for _, l := range Supported {
		if l == lang {
			return true
		}
	}
	return false
}
