package llm

// Wire shapes for the "data_sources" extension of Azure OpenAI chat completions.

type azureSearchDataSource struct {
	Type       string                `json:"type"`
	Parameters azureSearchParameters `json:"parameters"`
}

type azureSearchParameters struct {
	Endpoint              string                `json:"endpoint"`
	IndexName             string                `json:"index_name"`
	SemanticConfiguration string                `json:"semantic_configuration,omitempty"`
	QueryType             string                `json:"query_type"`
	FieldsMapping         azureSearchFields     `json:"fields_mapping"`
	InScope               bool                  `json:"in_scope"`
	RoleInformation       string                `json:"role_information"`
	Filter                *string               `json:"filter"`
	Strictness            int                   `json:"strictness"`
	TopNDocuments         int                   `json:"top_n_documents"`
	Authentication        azureSearchAuthConfig `json:"authentication"`
}

type azureSearchFields struct {
	ContentFieldsSeparator string   `json:"content_fields_separator"`
	ContentFields          []string `json:"content_fields"`
	FilepathField          *string  `json:"filepath_field"`
	TitleField             string   `json:"title_field"`
	URLField               string   `json:"url_field"`
	VectorFields           []string `json:"vector_fields"`
}

type azureSearchAuthConfig struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

func newAzureSearchDataSource(cfg SearchConfig) azureSearchDataSource {
	topN := cfg.TopNDocuments
	if topN == 0 {
		topN = defaultTopNDocuments
	}
	strictness := cfg.Strictness
	if strictness == 0 {
		strictness = defaultStrictness
	}
	role := cfg.RoleInformation
	if role == "" {
		role = defaultRoleInformation
	}

	queryType := "simple"
	if cfg.SemanticConfiguration != "" {
		queryType = "semantic"
	}

	return azureSearchDataSource{
		Type: "azure_search",
		Parameters: azureSearchParameters{
			Endpoint:              cfg.Endpoint,
			IndexName:             cfg.Index,
			SemanticConfiguration: cfg.SemanticConfiguration,
			QueryType:             queryType,
			FieldsMapping: azureSearchFields{
				ContentFieldsSeparator: "\n",
				TitleField:             "title",
				URLField:               "url",
				VectorFields:           []string{"text_vector"},
			},
			InScope:         cfg.InScope,
			RoleInformation: role,
			Strictness:      strictness,
			TopNDocuments:   topN,
			Authentication: azureSearchAuthConfig{
				Type: "api_key",
				Key:  cfg.Key,
			},
		},
	}
}
