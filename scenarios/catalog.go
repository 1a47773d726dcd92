package scenarios

import "slices"

const (
	GetUsersFromPage2       = "GetUsersFromPage2"
	VerifyUserDataStructure = "VerifyUserDataStructure"
	VerifyPagination        = "VerifyPagination"
	FindUserById            = "FindUserById"
	VerifyUserEmail         = "VerifyUserEmail"

	expectedUserID    = 8
	expectedUserEmail = "lindsay.ferguson@reqres.in"
	usersPage         = 2
)

var (
	userFields       = []string{"id", "email", "first_name", "last_name", "avatar"}
	paginationFields = []string{"page", "per_page", "total", "total_pages"}
)

func background() []Step {
	return []Step{
		{Keyword: Given, Text: "the ReqRes API is available", Run: givenAPIAvailable},
		{Keyword: And, Text: "the API key header is set", Run: givenAPIKeySet},
		{Keyword: When, Text: "I request the users list from page 2", Run: whenRequestUsersPage(usersPage)},
		{Keyword: Then, Text: "the response status should be 200", Run: thenStatusIs(200), Assertion: true},
	}
}

func assertion(text string, run StepFunc) Step {
	return Step{Keyword: And, Text: text, Run: run, Assertion: true}
}

// Catalog returns every scenario in execution order
func Catalog() []Scenario {
	return []Scenario{
		{
			Name: GetUsersFromPage2,
			Tags: []string{"@api", "@users", "@smoke"},
			Steps: append(background(),
				assertion("the response should contain page field with value 2", thenPageIs(usersPage)),
				assertion("the response should contain a data array with users", thenDataIsArray),
			),
		},
		{
			Name: VerifyUserDataStructure,
			Tags: []string{"@api", "@users", "@structure"},
			Steps: append(background(),
				assertion("the data array should not be empty", thenDataNotEmpty),
				assertion("each user should have the required fields", thenFirstUserHasFields(userFields...)),
			),
		},
		{
			Name: VerifyPagination,
			Tags: []string{"@api", "@pagination"},
			Steps: append(background(),
				assertion("the response should have pagination fields", thenHasPaginationFields(paginationFields...)),
				assertion("the data array should not be empty", thenDataNotEmpty),
			),
		},
		{
			Name: FindUserById,
			Tags: []string{"@api", "@users", "@search"},
			Steps: append(background(),
				assertion("I should find the user with id 8", thenFindUser(expectedUserID)),
				assertion("the user should have an email address", thenUserHasEmail),
				assertion("the email should contain @reqres.in", thenEmailContains("@reqres.in")),
			),
		},
		{
			Name: VerifyUserEmail,
			Tags: []string{"@api", "@users", "@email"},
			Steps: append(background(),
				assertion("the data array should have 6 items", thenDataHasItems(6)),
				assertion("I should find the user with id 8", thenFindUser(expectedUserID)),
				assertion("the user should have an email address", thenUserHasEmail),
				assertion("the email should be lindsay.ferguson@reqres.in", thenEmailIs(expectedUserEmail)),
			),
		},
	}
}

// Lookup returns the catalog scenario with the given name
func Lookup(name string) (Scenario, bool) {
	all := Catalog()
	i := slices.IndexFunc(all, func(sc Scenario) bool { return sc.Name == name })
	if i < 0 {
		return Scenario{}, false
	}
	return all[i], true
}

// Names returns the catalog scenario names in order
func Names() []string {
	all := Catalog()
	names := make([]string, 0, len(all))
	for _, sc := range all {
		names = append(names, sc.Name)
	}
	return names
}
